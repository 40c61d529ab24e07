package webhook

import (
	"github.com/marcelsud/webhook-relay/forward"
	"github.com/stretchr/testify/mock"
)

// MatchRequest creates a custom matcher for forward.Request arguments in mocks
func MatchRequest(matcher func(forward.Request) bool) interface{} {
	return mock.MatchedBy(matcher)
}
