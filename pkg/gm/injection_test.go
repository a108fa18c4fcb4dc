package gm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_TargetedInjection(t *testing.T) {
	var slot Slot
	slot.Set(ActionWhisper, "Alice", "the cellar door is unlocked")

	got := slot.Get("Alice")
	assert.Contains(t, got, "HIDDEN CONTEXT")
	assert.Contains(t, got, "the cellar door is unlocked")

	assert.Empty(t, slot.Get("Bob"), "non-target should receive nothing")
}

func TestSlot_UntargetedBroadcast(t *testing.T) {
	var slot Slot
	slot.Set(ActionPlant, "", "a clock that runs backwards")

	for _, name := range []string{"Alice", "Bob", "Mira"} {
		got := slot.Get(name)
		assert.Contains(t, got, "SUBTLE DETAIL")
		assert.Contains(t, got, "a clock that runs backwards")
	}
}

func TestSlot_GetDoesNotClear(t *testing.T) {
	var slot Slot
	slot.Set(ActionNudge, "", "growing impatience")

	first := slot.Get("Alice")
	second := slot.Get("Alice")
	assert.Equal(t, first, second)
	require.NotNil(t, slot.Pending())
}

func TestSlot_SetOverwrites(t *testing.T) {
	var slot Slot
	slot.Set(ActionWhisper, "Alice", "old secret")
	slot.Set(ActionSpawn, "Bob", "a knock at the door")

	assert.Empty(t, slot.Get("Alice"))
	assert.Contains(t, slot.Get("Bob"), "a knock at the door")
}

func TestSlot_Clear(t *testing.T) {
	var slot Slot
	slot.Set(ActionPlant, "", "detail")
	slot.Clear()

	assert.Nil(t, slot.Pending())
	assert.Empty(t, slot.Get("Alice"))
}

func TestInjection_FormatPerAction(t *testing.T) {
	tests := []struct {
		action Action
		marker string
	}{
		{ActionWhisper, "[HIDDEN CONTEXT"},
		{ActionPlant, "[SUBTLE DETAIL"},
		{ActionNudge, "[EMOTIONAL/BEHAVIORAL SHIFT]"},
		{ActionSpawn, "[NEW ELEMENT ENTERING SCENE"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			inj := Injection{Action: tt.action, Content: "C"}
			got := inj.Format()
			assert.Contains(t, got, tt.marker)
			assert.Contains(t, got, "C")
		})
	}
}

func TestInjection_HoldFormatsEmpty(t *testing.T) {
	inj := Injection{Action: ActionHold, Content: "C"}
	assert.Empty(t, inj.Format())
}
