// internal/resolve/fake_backend_test.go
package resolve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/descry/api/schemas"
)

// fakeElem is one in-memory element. Boxes is a sequence consumed one entry
// per BoundingBox call with the last entry repeating, which lets tests script
// an element that moves and then settles. A nil final entry simulates
// detachment.
type fakeElem struct {
	mu       sync.Mutex
	visible  bool
	enabled  bool
	hit      bool
	tag      string
	attrs    map[string]string
	boxes    []*schemas.BoundingBox
	boxCalls int
	// jitter makes the element drift forever, one step per BoundingBox call.
	jitter bool
}

func (e *fakeElem) nextBox() *schemas.BoundingBox {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jitter {
		e.boxCalls++
		return &schemas.BoundingBox{X: 10, Y: float64(e.boxCalls) * 10, Width: 100, Height: 30}
	}
	if len(e.boxes) == 0 {
		return &schemas.BoundingBox{X: 10, Y: 10, Width: 100, Height: 30}
	}
	i := e.boxCalls
	if i >= len(e.boxes) {
		i = len(e.boxes) - 1
	}
	e.boxCalls++
	return e.boxes[i]
}

func visibleElem() *fakeElem {
	return &fakeElem{visible: true, enabled: true, hit: true, tag: "button"}
}

// fakeLocator is a view over a slice of shared elements.
type fakeLocator struct {
	elems []*fakeElem
	err   error
}

func (l *fakeLocator) Count(ctx context.Context) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	return len(l.elems), nil
}

func (l *fakeLocator) Nth(i int) Locator {
	if i < 0 || i >= len(l.elems) {
		return &fakeLocator{}
	}
	return &fakeLocator{elems: l.elems[i : i+1]}
}

func (l *fakeLocator) First() Locator { return l.Nth(0) }
func (l *fakeLocator) Last() Locator  { return l.Nth(len(l.elems) - 1) }

func (l *fakeLocator) IsVisible(ctx context.Context) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if len(l.elems) == 0 {
		return false, nil
	}
	return l.elems[0].visible, nil
}

func (l *fakeLocator) IsEnabled(ctx context.Context) (bool, error) {
	if len(l.elems) == 0 {
		return false, nil
	}
	return l.elems[0].enabled, nil
}

func (l *fakeLocator) BoundingBox(ctx context.Context) (*schemas.BoundingBox, error) {
	if len(l.elems) == 0 {
		return nil, nil
	}
	return l.elems[0].nextBox(), nil
}

func (l *fakeLocator) TagName(ctx context.Context) (string, error) {
	if len(l.elems) == 0 {
		return "", nil
	}
	return l.elems[0].tag, nil
}

func (l *fakeLocator) Attributes(ctx context.Context) (map[string]string, error) {
	if len(l.elems) == 0 {
		return nil, nil
	}
	return l.elems[0].attrs, nil
}

func (l *fakeLocator) HitTestCenter(ctx context.Context) (bool, error) {
	if len(l.elems) == 0 {
		return false, nil
	}
	return l.elems[0].hit, nil
}

func (l *fakeLocator) WaitVisible(ctx context.Context, timeout time.Duration) error {
	visible, err := l.IsVisible(ctx)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("element not visible within %s", timeout)
	}
	return nil
}

// fakeBackend routes queries by a canonical key. Unregistered queries resolve
// to an empty locator, which the chain treats as a miss.
type fakeBackend struct {
	locators      map[string]*fakeLocator
	animationsErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		locators:      make(map[string]*fakeLocator),
		animationsErr: ErrUnsupported,
	}
}

func (b *fakeBackend) register(key string, elems ...*fakeElem) {
	b.locators[key] = &fakeLocator{elems: elems}
}

func (b *fakeBackend) get(key string) Locator {
	if l, ok := b.locators[key]; ok {
		return l
	}
	return &fakeLocator{}
}

func roleKey(role, name string) string   { return "role:" + role + ":" + name }
func textKey(text string, ex bool) string { return fmt.Sprintf("text:%s:%t", text, ex) }
func labelKey(p string) string           { return "label:" + p }
func placeholderKey(p string) string     { return "placeholder:" + p }
func altKey(p string) string             { return "alt:" + p }
func titleKey(p string) string           { return "title:" + p }
func selectorKey(s string) string        { return "selector:" + s }

func (b *fakeBackend) ByRole(role, name string) Locator  { return b.get(roleKey(role, name)) }
func (b *fakeBackend) ByText(t string, ex bool) Locator  { return b.get(textKey(t, ex)) }
func (b *fakeBackend) ByLabel(p string) Locator          { return b.get(labelKey(p)) }
func (b *fakeBackend) ByPlaceholder(p string) Locator    { return b.get(placeholderKey(p)) }
func (b *fakeBackend) ByAltText(p string) Locator        { return b.get(altKey(p)) }
func (b *fakeBackend) ByTitle(p string) Locator          { return b.get(titleKey(p)) }
func (b *fakeBackend) BySelector(s string) Locator       { return b.get(selectorKey(s)) }

func (b *fakeBackend) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return nil
}

func (b *fakeBackend) WaitForSelector(ctx context.Context, sel, state string, timeout time.Duration) error {
	return nil
}

func (b *fakeBackend) WaitForAnimations(ctx context.Context, timeout time.Duration) error {
	return b.animationsErr
}

func (b *fakeBackend) WaitForMutationQuiet(ctx context.Context, quiet, ceiling time.Duration) error {
	return nil
}
