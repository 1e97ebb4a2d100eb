package navigation

import "github.com/muurk/signflow/internal/steps"

// closeTargets maps overlay views to the view their close button returns to.
var closeTargets = map[steps.View]steps.View{
	steps.ViewVideoLibrary:       steps.ViewSendDocument,
	steps.ViewInvite:             steps.ViewHome,
	steps.ViewHelp:               steps.ViewHome,
	steps.ViewSettings:           steps.ViewHome,
	steps.ViewDocumentDetail:     steps.ViewHome,
	steps.ViewDocumentValidation: steps.ViewSendDocument,
}

// CloseOverlay returns the view shown after closing view. Views without a
// fixed parent close onto themselves.
func CloseOverlay(view steps.View) steps.View {
	if target, ok := closeTargets[view]; ok {
		return target
	}
	return view
}

// ShowBackButton reports whether view is rendered with a back/close control.
func ShowBackButton(view steps.View) bool {
	switch view {
	case steps.ViewVideoLibrary,
		steps.ViewInvite,
		steps.ViewHelp,
		steps.ViewSettings,
		steps.ViewDocumentDetail:
		return true
	}
	return false
}

// IsOverlay reports whether view is opened on top of the wizard rather than
// reached through the step table.
func IsOverlay(view steps.View) bool {
	return ShowBackButton(view)
}

// MenuItem is an entry of the wizard menu.
type MenuItem struct {
	View  steps.View
	Title string
	Icon  string
}

// MenuItems lists the menu entries in display order.
func MenuItems() []MenuItem {
	return []MenuItem{
		{View: steps.ViewHelp, Title: "Help", Icon: "?"},
		{View: steps.ViewSettings, Title: "Settings", Icon: "⚙"},
		{View: steps.ViewLogout, Title: "Logout", Icon: "⏻"},
	}
}
