package events

import "github.com/atomicstack/chsearch/internal/logging"

type UITracer struct{}

type FilterTracer struct{}

type SelectionTracer struct{}

type CommandTracer struct{}

var (
	UI        = UITracer{}
	Filter    = FilterTracer{}
	Selection = SelectionTracer{}
	Command   = CommandTracer{}
)

func (UITracer) Cursor(cursor int) {
	logging.Trace("list.cursor", map[string]interface{}{"cursor": cursor})
}

func (UITracer) Focus(focused bool) {
	logging.Trace("input.focus", map[string]interface{}{"focused": focused})
}

func (UITracer) Choose(id, title string) {
	logging.Trace("list.choose", map[string]interface{}{"id": id, "title": title})
}

func (FilterTracer) Cleared() {
	logging.Trace("filter.clear", nil)
}

func (FilterTracer) WordBackspace(filter string) {
	logging.Trace("filter.word-backspace", map[string]interface{}{"filter": filter})
}

func (FilterTracer) Cursor(pos int) {
	logging.Trace("filter.cursor", map[string]interface{}{"cursor": pos})
}

func (FilterTracer) CursorWord(pos int) {
	logging.Trace("filter.cursor-word", map[string]interface{}{"cursor": pos})
}

func (FilterTracer) Append(filter string) {
	logging.Trace("filter.append", map[string]interface{}{"filter": filter})
}

func (FilterTracer) Backspace(filter string) {
	logging.Trace("filter.backspace", map[string]interface{}{"filter": filter})
}

func (SelectionTracer) Add(id, title string) {
	logging.Trace("selection.add", map[string]interface{}{"id": id, "title": title})
}

func (SelectionTracer) Remove(id string) {
	logging.Trace("selection.remove", map[string]interface{}{"id": id})
}

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Skip(id, label string) {
	logging.Trace("command.skip", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label string, err error) {
	payload := map[string]interface{}{"id": id, "label": label}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("command.result", payload)
}
