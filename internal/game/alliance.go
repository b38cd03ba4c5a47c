package game

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
)

// Alliance joins two players until it expires or one of them breaks it.
type Alliance struct {
	id        int
	requestor core.SmallID
	recipient core.SmallID
	createdAt int
}

func (a *Alliance) ID() int                 { return a.id }
func (a *Alliance) Requestor() core.SmallID { return a.requestor }
func (a *Alliance) Recipient() core.SmallID { return a.recipient }
func (a *Alliance) CreatedAt() int          { return a.createdAt }

func (a *Alliance) involves(p core.SmallID) bool {
	return a.requestor == p || a.recipient == p
}

// Other returns the member that is not p.
func (a *Alliance) Other(p core.SmallID) core.SmallID {
	if a.requestor == p {
		return a.recipient
	}
	return a.requestor
}

// AllianceRequest is a pending proposal.
type AllianceRequest struct {
	requestor core.SmallID
	recipient core.SmallID
	createdAt int
}

func (r *AllianceRequest) Requestor() core.SmallID { return r.requestor }
func (r *AllianceRequest) Recipient() core.SmallID { return r.recipient }
func (r *AllianceRequest) CreatedAt() int          { return r.createdAt }

func pairMatches(a1, a2, b1, b2 core.SmallID) bool {
	return (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1)
}

// Alliances returns the current alliances in creation order.
func (e *Engine) Alliances() []*Alliance {
	return append([]*Alliance(nil), e.alliances...)
}

// AllianceRequests returns the pending requests in creation order.
func (e *Engine) AllianceRequests() []*AllianceRequest {
	return append([]*AllianceRequest(nil), e.allianceRequests...)
}

// AllianceBetween returns the alliance joining a and b, if any.
func (e *Engine) AllianceBetween(a, b *Player) *Alliance {
	for _, al := range e.alliances {
		if pairMatches(al.requestor, al.recipient, a.smallID, b.smallID) {
			return al
		}
	}
	return nil
}

func (e *Engine) IsAlliedWith(a, b *Player) bool {
	return e.AllianceBetween(a, b) != nil
}

// Allies returns the small ids of p's allies in alliance creation order.
func (e *Engine) Allies(p *Player) []core.SmallID {
	var out []core.SmallID
	for _, al := range e.alliances {
		if al.involves(p.smallID) {
			out = append(out, al.Other(p.smallID))
		}
	}
	return out
}

// PlayerAlliances returns the alliances p is a member of.
func (e *Engine) PlayerAlliances(p *Player) []*Alliance {
	var out []*Alliance
	for _, al := range e.alliances {
		if al.involves(p.smallID) {
			out = append(out, al)
		}
	}
	return out
}

// PendingAllianceRequest returns the request from requestor to recipient.
func (e *Engine) PendingAllianceRequest(requestor, recipient *Player) *AllianceRequest {
	for _, r := range e.allianceRequests {
		if r.requestor == requestor.smallID && r.recipient == recipient.smallID {
			return r
		}
	}
	return nil
}

// OutgoingAllianceRequests returns the recipients of p's pending requests.
func (e *Engine) OutgoingAllianceRequests(p *Player) []core.SmallID {
	var out []core.SmallID
	for _, r := range e.allianceRequests {
		if r.requestor == p.smallID {
			out = append(out, r.recipient)
		}
	}
	return out
}

// CanSendAllianceRequest is false for allies, for a pending request in either
// direction that is still inside the cooldown, and for self requests.
func (e *Engine) CanSendAllianceRequest(from, to *Player) bool {
	if from == to || e.IsAlliedWith(from, to) {
		return false
	}
	if r := e.PendingAllianceRequest(from, to); r != nil {
		return e.ticks-r.createdAt >= e.cfg.Alliance.RequestCooldownTicks
	}
	return true
}

// CreateAllianceRequest records a request from requestor to recipient. A
// duplicate request is ignored and a request answering a pending request in
// the opposite direction accepts it. The returned alliance is non-nil only in
// that case.
func (e *Engine) CreateAllianceRequest(requestor, recipient *Player) (*AllianceRequest, *Alliance) {
	if requestor == recipient || e.IsAlliedWith(requestor, recipient) {
		return nil, nil
	}
	if reverse := e.PendingAllianceRequest(recipient, requestor); reverse != nil {
		return nil, e.AcceptAllianceRequest(reverse)
	}
	if r := e.PendingAllianceRequest(requestor, recipient); r != nil {
		e.logger.Debug().
			Uint16("requestor", uint16(requestor.smallID)).
			Uint16("recipient", uint16(recipient.smallID)).
			Msg("Duplicate alliance request ignored")
		return r, nil
	}

	r := &AllianceRequest{requestor: requestor.smallID, recipient: recipient.smallID, createdAt: e.ticks}
	e.allianceRequests = append(e.allianceRequests, r)
	e.markPlayer(requestor)
	e.publish(events.NewAllianceRequestedEvent(e.gameID, e.ticks, r.requestor, r.recipient))
	return r, nil
}

// AcceptAllianceRequest turns r into an alliance.
func (e *Engine) AcceptAllianceRequest(r *AllianceRequest) *Alliance {
	if !e.removeAllianceRequest(r) {
		return nil
	}
	requestor := e.PlayerBySmallID(r.requestor)
	recipient := e.PlayerBySmallID(r.recipient)
	e.publish(events.NewAllianceRepliedEvent(e.gameID, e.ticks, r.requestor, r.recipient, true))
	if e.IsAlliedWith(requestor, recipient) {
		return e.AllianceBetween(requestor, recipient)
	}

	e.nextAllianceID++
	al := &Alliance{id: e.nextAllianceID, requestor: r.requestor, recipient: r.recipient, createdAt: e.ticks}
	e.alliances = append(e.alliances, al)
	e.markPlayer(requestor)
	e.markPlayer(recipient)
	e.publish(events.NewAllianceFormedEvent(e.gameID, e.ticks, al.id, al.requestor, al.recipient))
	return al
}

// RejectAllianceRequest drops r.
func (e *Engine) RejectAllianceRequest(r *AllianceRequest) {
	if !e.removeAllianceRequest(r) {
		return
	}
	e.publish(events.NewAllianceRepliedEvent(e.gameID, e.ticks, r.requestor, r.recipient, false))
}

func (e *Engine) removeAllianceRequest(r *AllianceRequest) bool {
	for i, pending := range e.allianceRequests {
		if pending == r {
			e.allianceRequests = append(e.allianceRequests[:i], e.allianceRequests[i+1:]...)
			e.markPlayer(e.PlayerBySmallID(r.requestor))
			return true
		}
	}
	return false
}

// matchingAlliance returns the index of the single alliance between a and b.
// Any other count is fatal.
func (e *Engine) matchingAlliance(op string, a, b core.SmallID) int {
	found := -1
	count := 0
	for i, al := range e.alliances {
		if pairMatches(al.requestor, al.recipient, a, b) {
			found = i
			count++
		}
	}
	if count != 1 {
		core.Fatalf(op, "players %d and %d have %d alliances: %w", a, b, count, core.ErrAllianceInvariant)
	}
	return found
}

// BreakAlliance ends the alliance between breaker and other and marks the
// breaker as a traitor.
func (e *Engine) BreakAlliance(breaker, other *Player) {
	i := e.matchingAlliance("break alliance", breaker.smallID, other.smallID)
	e.alliances = append(e.alliances[:i], e.alliances[i+1:]...)
	breaker.isTraitor = true
	e.markPlayer(breaker)
	e.markPlayer(other)
	e.logger.Debug().
		Uint16("traitor", uint16(breaker.smallID)).
		Uint16("betrayed", uint16(other.smallID)).
		Msg("Alliance broken")
	e.publish(events.NewAllianceBrokenEvent(e.gameID, e.ticks, breaker.smallID, other.smallID))
}

// ExpireAlliance ends al without blame.
func (e *Engine) ExpireAlliance(al *Alliance) {
	i := e.matchingAlliance("expire alliance", al.requestor, al.recipient)
	e.alliances = append(e.alliances[:i], e.alliances[i+1:]...)
	e.markPlayer(e.PlayerBySmallID(al.requestor))
	e.markPlayer(e.PlayerBySmallID(al.recipient))
	e.publish(events.NewAllianceExpiredEvent(e.gameID, e.ticks, al.requestor, al.recipient))
}
