// Package tui implements the terminal user interface for the signflow
// document wizard.
//
// The application is a Bubble Tea program following the Model-Update-View
// pattern. Every wizard move goes through a navigation.Session, so the
// screens never change the current view themselves: they ask the session
// and render whatever view it reports.
//
// # Screens
//
//   - Home: start menu shown while the session is on the home boundary
//   - Wizard: one panel per row of the step table, plus the overlay views
//     (help, settings, invite, document detail, video library) drawn as
//     modals on top
//   - Discovery: browse the network for notification hubs or type a URL
//   - Success: summary after the document was sent
//
// All screens share RenderApplicationContainer for the header (app name,
// version and hub state), content and footer help.
//
// # Hub Publishing
//
// View changes are fanned out to the notifiers given in Options and to the
// hub selected at runtime. The hub connection can be replaced while the
// session runs; changes made while no hub is connected are simply not
// published.
//
// # Usage Example
//
//	result, err := tui.Run(tui.Options{
//	    Table:       table,
//	    Draft:       draft,
//	    Preferences: registry.Preferences,
//	    HubURL:      "ws://localhost:8765/ws",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("session", result.SessionID, "finished:", result.Finished)
package tui
