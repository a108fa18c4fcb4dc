package gm

import (
	"fmt"
	"sync"
)

// Injection is the reduced projection of a non-hold decision, held until the
// next character response consumes it.
type Injection struct {
	Action  Action `json:"action"`
	Target  string `json:"target,omitempty"` // empty targets every character in scene
	Content string `json:"content"`
}

// injectionFormats are the directives wrapped around injection content before
// it reaches a character's prompt.
var injectionFormats = map[Action]string{
	ActionWhisper: "[HIDDEN CONTEXT - ACT ON THIS NATURALLY, DO NOT REVEAL DIRECTLY TO USER]: %s",
	ActionPlant:   "[SUBTLE DETAIL TO INCLUDE]: %s",
	ActionNudge:   "[EMOTIONAL/BEHAVIORAL SHIFT]: %s",
	ActionSpawn:   "[NEW ELEMENT ENTERING SCENE - REVEAL THROUGH YOUR PERSPECTIVE]: %s",
}

// Format renders the injection as the directive text delivered to a
// character's prompt.
func (i *Injection) Format() string {
	format, ok := injectionFormats[i.Action]
	if !ok {
		return ""
	}
	return fmt.Sprintf(format, i.Content)
}

// Slot is a single-item mailbox between the decision cycle and downstream
// generation. A new decision overwrites whatever is pending; an unconsumed
// injection is silently discarded. Reads do not clear the slot, so every
// character in a group turn can receive an untargeted injection.
type Slot struct {
	mu      sync.Mutex
	current *Injection
}

// Set replaces the pending injection unconditionally.
func (s *Slot) Set(action Action, target, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &Injection{Action: action, Target: target, Content: content}
}

// Get returns the formatted injection text for the named character, or empty
// when the slot is empty or targeted elsewhere. The slot is not cleared.
func (s *Slot) Get(characterName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	if s.current.Target != "" && s.current.Target != characterName {
		return ""
	}
	return s.current.Format()
}

// Pending returns a copy of the pending injection, or nil.
func (s *Slot) Pending() *Injection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Clear empties the slot. Called when a cycle resolves to hold.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
