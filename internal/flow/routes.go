package flow

import "github.com/BTreeMap/Brenda/internal/models"

// waitingRoutes maps the awaited input onto the flow that owns the reply.
// The privacy states are exclusive. A course selection answer is tried after
// the announcement and ad flows so a hashtag can still pick the course; every
// other awaited input is offered to its owner first.
func (p *Processor) waitingRoutes() map[models.WaitingFor]route {
	return map[models.WaitingFor]route{
		models.WaitingPrivacyAcceptance:   {RoutePrivacy, p.handlePrivacy},
		models.WaitingUserName:            {RoutePrivacy, p.handlePrivacy},
		models.WaitingCourseSelection:     {RouteWelcome, p.handleWelcome},
		models.WaitingContactConfirmation: {RouteContact, p.handleContact},
		models.WaitingPaymentReceipt:      {RoutePostPurchase, p.handlePostPurchase},
	}
}

// resolveRoutes returns the candidate handlers for the lead's current
// (stage, waiting_for_response) pair, in the order they are tried.
func (p *Processor) resolveRoutes(lead *models.LeadMemory) []route {
	waiting := lead.WaitingForResponse
	switch {
	case waiting == models.WaitingPrivacyAcceptance || waiting == models.WaitingUserName:
		return []route{p.waitingTable[waiting]}
	case lead.Stage == models.StagePrivacyRejected && !lead.PrivacyAccepted:
		return []route{{RoutePrivacyRejected, p.handleRejected}}
	case lead.NeedsPrivacyFlow():
		return []route{{RoutePrivacy, p.handlePrivacy}}
	}

	routes := make([]route, 0, 6)
	if r, ok := p.waitingTable[waiting]; ok && waiting != models.WaitingCourseSelection {
		routes = append(routes, r)
	}
	routes = append(routes,
		route{RouteAnnouncement, p.handleAnnouncement},
		route{RouteAd, p.handleAd},
	)
	if waiting == models.WaitingCourseSelection || lead.NeedsCourseSelection() {
		routes = append(routes, route{RouteWelcome, p.handleWelcome})
	}
	routes = append(routes,
		route{RouteIntelligent, p.handleIntelligent},
		route{RouteFallback, p.handleFallback},
	)
	return routes
}
