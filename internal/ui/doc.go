// Package ui contains the Bubble Tea program for the incremental search
// picker.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages.
//   - Messages produced by the search controller (trailing throttle ticks,
//     delayed indicator starts, search responses) are offered to
//     controller.HandleMsg first. Everything else is routed through a typed
//     handler registry so each tea.Msg is handled by a focused function.
//   - Prompt edits (input.go) update the suggestion list's local filter at once
//     and then notify the controller, which paces remote requests.
//
// State ownership:
//   - The suggestion list lives in internal/ui/state.Level: candidates,
//     local filtering, the cursor, the viewport and selected records.
//   - Request ordering and the loading indicator belong to the controller.
//     The model only supplies the prompt (promptInput) and the spinner
//     (indicator) it drives.
//   - Submitting a selection runs through internal/ui/command so the snippet
//     lookup happens off the update loop.
package ui
