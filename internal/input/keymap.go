package input

import (
	"fmt"
	"sort"
	"strings"
)

// KeyMap maps key names to buttons. Names follow ebiten's Key.String
// spelling ("A", "Enter", "ArrowUp").
type KeyMap map[string]Button

// DefaultKeyMap is the stock layout.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"A":          A,
		"Z":          B,
		"Enter":      Start,
		"S":          Select,
		"ArrowUp":    Up,
		"ArrowDown":  Down,
		"ArrowLeft":  Left,
		"ArrowRight": Right,
	}
}

// Lookup returns the button bound to key.
func (m KeyMap) Lookup(key string) (Button, bool) {
	b, ok := m[key]
	return b, ok
}

// KeyEvent maps a key transition to an event. Unbound keys report false.
func (m KeyMap) KeyEvent(key string, pressed bool) (Event, bool) {
	b, ok := m[key]
	if !ok {
		return Event{}, false
	}
	return Event{Button: b, Pressed: pressed}, true
}

// KeysFor lists the keys bound to b, sorted.
func (m KeyMap) KeysFor(b Button) []string {
	var keys []string
	for k, v := range m {
		if v == b {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ParseKeyMap overrides bindings in base from a "Button=Key,..." list, e.g.
// "A=X,B=C,Start=Space". A button named here loses its old keys.
func ParseKeyMap(base KeyMap, spec string) (KeyMap, error) {
	out := make(KeyMap, len(base))
	for k, v := range base {
		out[k] = v
	}
	if strings.TrimSpace(spec) == "" {
		return out, nil
	}
	for _, part := range strings.Split(spec, ",") {
		name, key, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("input: bad key binding %q", part)
		}
		b, ok := ParseButton(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("input: unknown button %q", name)
		}
		for k, v := range out {
			if v == b {
				delete(out, k)
			}
		}
		out[strings.TrimSpace(key)] = b
	}
	return out, nil
}
