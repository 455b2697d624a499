package push

// Content is the user-visible part of a notification.
type Content struct {
	Title string
	Body  string
	Sound string
}

// DefaultSound is applied when a request doesn't name one.
const DefaultSound = "default"

// Outcome records the delivery attempt for a single token. Immutable once
// produced by a dispatcher.
type Outcome struct {
	Token    string
	Provider Provider
	Success  bool
	// Reason carries the provider's error classification for failures
	// (e.g. "DeviceNotRegistered"). Empty on success.
	Reason string
	// Prunable signals that the provider reported the token as no longer
	// registered and the caller may remove it from the token store.
	// Advisory only; the relay never deletes tokens itself.
	Prunable bool
	// TicketID is the provider's receipt identifier, when it issues one.
	TicketID string
}

// Delivered builds a success outcome.
func Delivered(token string, provider Provider, ticketID string) Outcome {
	return Outcome{Token: token, Provider: provider, Success: true, TicketID: ticketID}
}

// Failed builds a failure outcome.
func Failed(token string, provider Provider, reason string) Outcome {
	return Outcome{Token: token, Provider: provider, Reason: reason}
}

// Result aggregates the outcomes of one dispatch call.
//
// Invariants: Total == len(Outcomes), Success+Failed == Total, and every
// input token appears in exactly one Outcome.
type Result struct {
	Success  int
	Failed   int
	Total    int
	Outcomes []Outcome
}

// Add appends outcomes and keeps the running counts consistent.
func (r *Result) Add(outcomes ...Outcome) {
	for _, o := range outcomes {
		if o.Success {
			r.Success++
		} else {
			r.Failed++
		}
	}
	r.Total += len(outcomes)
	r.Outcomes = append(r.Outcomes, outcomes...)
}
