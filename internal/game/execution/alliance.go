package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
)

// pairOf resolves the two client ids of a player-to-player intent.
func pairOf(e *game.Engine, from, to, op string) (*game.Player, *game.Player, bool) {
	a, ok := lookupPlayer(e, from, op)
	if !ok {
		return nil, nil, false
	}
	b, ok := lookupPlayer(e, to, op)
	if !ok || a == b {
		return nil, nil, false
	}
	return a, b, true
}

// AllianceRequestExecution asks another player for an alliance. A request
// answering a pending request from the recipient forms the alliance.
type AllianceRequestExecution struct {
	oneShot
	requestor, recipient string
}

func NewAllianceRequestExecution(requestor, recipient string) *AllianceRequestExecution {
	return &AllianceRequestExecution{requestor: requestor, recipient: recipient}
}

func (x *AllianceRequestExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *AllianceRequestExecution) Init(e *game.Engine, tick int) {
	x.done = true
	req, rec, ok := pairOf(e, x.requestor, x.recipient, "alliance request")
	if !ok {
		return
	}
	if !e.CanSendAllianceRequest(req, rec) {
		e.Logger().Debug().Str("requestor", x.requestor).Str("recipient", x.recipient).Msg("Alliance request not allowed")
		return
	}
	if _, al := e.CreateAllianceRequest(req, rec); al != nil {
		e.Logger().Debug().Int("alliance_id", al.ID()).Msg("Reciprocal request accepted")
	}
}

// AllianceReplyExecution accepts or rejects a pending request.
type AllianceReplyExecution struct {
	oneShot
	requestor, recipient string
	accept               bool
}

func NewAllianceReplyExecution(requestor, recipient string, accept bool) *AllianceReplyExecution {
	return &AllianceReplyExecution{requestor: requestor, recipient: recipient, accept: accept}
}

func (x *AllianceReplyExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *AllianceReplyExecution) Init(e *game.Engine, tick int) {
	x.done = true
	req, rec, ok := pairOf(e, x.requestor, x.recipient, "alliance reply")
	if !ok {
		return
	}
	r := e.PendingAllianceRequest(req, rec)
	if r == nil {
		e.Logger().Debug().Str("requestor", x.requestor).Str("recipient", x.recipient).Msg("Reply to missing alliance request")
		return
	}
	if x.accept {
		e.AcceptAllianceRequest(r)
	} else {
		e.RejectAllianceRequest(r)
	}
}

// BreakAllianceExecution ends an alliance and brands the breaker a traitor.
type BreakAllianceExecution struct {
	oneShot
	breaker, other string
}

func NewBreakAllianceExecution(breaker, other string) *BreakAllianceExecution {
	return &BreakAllianceExecution{breaker: breaker, other: other}
}

func (x *BreakAllianceExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *BreakAllianceExecution) Init(e *game.Engine, tick int) {
	x.done = true
	breaker, other, ok := pairOf(e, x.breaker, x.other, "break alliance")
	if !ok {
		return
	}
	if !e.IsAlliedWith(breaker, other) {
		e.Logger().Debug().Str("breaker", x.breaker).Str("other", x.other).Msg("Not allied")
		return
	}
	e.BreakAlliance(breaker, other)
	e.DisplayMessage(breaker.Name()+" broke their alliance with you", MessageAllianceBroken, other)
}
