package gateway

import "github.com/smegcoffee/request-form-sub001/internal/portal"

// The gateway wraps conceptually identical lists in differently named
// envelope fields depending on the endpoint: candidate lists arrive under
// "HOApprovers", branch lists under "data" or "hasBranches". The
// inconsistency is tolerated on decode and normalized here; nothing outside
// this package sees the envelopes.

type approverEnvelope struct {
	HOApprovers []portal.Approver `json:"HOApprovers"`
}

type staffEnvelope struct {
	HOApprovers []portal.Staff `json:"HOApprovers"`
}

type branchEnvelope struct {
	Data        []portal.Branch `json:"data"`
	HasBranches []portal.Branch `json:"hasBranches"`
}

func (e branchEnvelope) list() []portal.Branch {
	if e.Data != nil {
		return e.Data
	}
	if e.HasBranches != nil {
		return e.HasBranches
	}
	return []portal.Branch{}
}

type positionEnvelope struct {
	Data []portal.Position `json:"data"`
}

type requestEnvelope struct {
	Data []portal.Request `json:"data"`
}

type notificationEnvelope struct {
	Data []portal.Notification `json:"data"`
}

// statusResponse is the gateway's success acknowledgment for mutations.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
