// Package dom binds event subjects to elements of a parsed HTML document.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linanwx/conveyor/bus"
	"github.com/linanwx/conveyor/internal/runtimecfg"
	"github.com/linanwx/conveyor/thinking"
)

// ErrNoElement is returned when a selector matches nothing.
var ErrNoElement = errors.New("dom: no element matches selector")

// Document is a parsed HTML document whose elements can act as subjects.
type Document struct {
	doc      *goquery.Document
	elements map[string]*Element
}

// Element is the first node matched by a selector, wrapped as a subject.
type Element struct {
	*bus.Emitter
	sel *goquery.Selection
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{
		doc:      doc,
		elements: make(map[string]*Element),
	}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// Element returns the subject for the first node matching selector. The
// same selector always yields the same *Element.
func (d *Document) Element(selector string) (*Element, error) {
	selector = strings.TrimSpace(selector)
	if el, ok := d.elements[selector]; ok {
		return el, nil
	}
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoElement, selector)
	}
	el := &Element{
		Emitter: bus.NewEmitter(selector),
		sel:     sel,
	}
	d.elements[selector] = el
	return el, nil
}

// HTML renders the document, including state written by SetState.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// SetState records state on the element's data attribute and toggles the
// idle class.
func (e *Element) SetState(state string) {
	e.sel.SetAttr(runtimecfg.DOMStateAttr, state)
	if state == thinking.Idle.String() {
		e.sel.AddClass(runtimecfg.DOMIdleClass)
	} else {
		e.sel.RemoveClass(runtimecfg.DOMIdleClass)
	}
	e.tidyClass()
}

// tidyClass collapses the whitespace goquery leaves in the class attribute.
func (e *Element) tidyClass() {
	class, ok := e.sel.Attr("class")
	if !ok {
		return
	}
	if fields := strings.Fields(class); len(fields) > 0 {
		e.sel.SetAttr("class", strings.Join(fields, " "))
	} else {
		e.sel.RemoveAttr("class")
	}
}

// State returns the state last written by SetState.
func (e *Element) State() string {
	v, _ := e.sel.Attr(runtimecfg.DOMStateAttr)
	return v
}

// Bind mirrors tracker transitions onto elements of this document.
func (d *Document) Bind(tracker *thinking.Tracker) {
	tracker.Observe(func(subject thinking.Subject, _, to thinking.State) {
		el, ok := subject.(*Element)
		if !ok || d.elements[el.Name()] != el {
			return
		}
		el.SetState(to.String())
	})
}
