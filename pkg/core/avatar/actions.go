package avatar

// Action is a scripted user gesture toward the avatar. Each action sends its
// Prompt upstream as a typed turn and nudges the mood. Repeating an annoying
// action enough times in a row makes the professor angry.
type Action struct {
	Name     string
	Prompt   string
	Mood     Mood
	Annoying bool
}

// Built-in actions mirrored by the UI shell's buttons.
var (
	ActionPet = Action{
		Name:   "pet",
		Prompt: "*pets you gently on the head*",
		Mood:   MoodHappy,
	}
	ActionTreat = Action{
		Name:   "treat",
		Prompt: "*offers you a dog treat*",
		Mood:   MoodHappy,
	}
	ActionPoke = Action{
		Name:     "poke",
		Prompt:   "*pokes you*",
		Mood:     MoodHappy,
		Annoying: true,
	}
)

// ActionByName resolves a UI action identifier. Unknown names return false.
func ActionByName(name string) (Action, bool) {
	switch name {
	case ActionPet.Name:
		return ActionPet, true
	case ActionTreat.Name:
		return ActionTreat, true
	case ActionPoke.Name:
		return ActionPoke, true
	default:
		return Action{}, false
	}
}
