// Package navigation moves a wizard between the views of a step table.
//
// Controller is stateless: GoNext, GoBack and GoTo take the current view as a
// parameter and answer from the immutable table. Every successful call emits a
// ViewChange to the configured Notifier; failures emit nothing and return a
// *steps.UnknownStepError.
//
// Session wraps a Controller for one wizard run. It owns the current view,
// consults a gate before moving forward, and handles overlay views (help,
// settings, ...) that close back onto a fixed parent.
//
//	s := navigation.NewSession(steps.DefaultTable(),
//	    navigation.WithSessionNotifier(publisher))
//	view, decision, err := s.Next(draft)
package navigation
