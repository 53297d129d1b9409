package chat

// Keyboard is a reply-keyboard layout for a chat front-end to render.
// Rows hold verb labels the gateway understands.
type Keyboard struct {
	Rows [][]string `json:"rows"`
}

// Keyboard verbs. Each maps 1:1 onto a dispatcher action.
const (
	VerbStart    = "START"
	VerbEnd      = "END"
	VerbDay      = "DAY"
	VerbSick     = "SICK"
	VerbVacation = "VACATION"
)

// mainKeyboard is shown while idle: start a timer or write the day off.
func mainKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{
		{VerbStart},
		{VerbSick},
		{VerbVacation},
	}}
}

// runningKeyboard is shown while a timer is open.
func runningKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{
		{VerbEnd},
	}}
}

// afterStopKeyboard offers another interval or closing out the day.
func afterStopKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]string{
		{VerbStart, VerbDay},
	}}
}
