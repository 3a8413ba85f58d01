package bot

// Command identifies one of the draft state machine's transitions.
type Command string

const (
	CmdSetName       Command = "set_name"
	CmdSetEmail      Command = "set_email"
	CmdSetIban       Command = "set_iban"
	CmdSetBoard      Command = "set_board"
	CmdAddLine       Command = "add_line"
	CmdAddAttachment Command = "add_attachment"
	CmdReset         Command = "reset"
	CmdShow          Command = "show"
	CmdProfile       Command = "profile"
	CmdHelp          Command = "help"
	CmdFinalize      Command = "finalize"
)

var commands = map[string]Command{
	string(CmdSetName):       CmdSetName,
	string(CmdSetEmail):      CmdSetEmail,
	string(CmdSetIban):       CmdSetIban,
	string(CmdSetBoard):      CmdSetBoard,
	string(CmdAddLine):       CmdAddLine,
	string(CmdAddAttachment): CmdAddAttachment,
	string(CmdReset):         CmdReset,
	string(CmdShow):          CmdShow,
	string(CmdProfile):       CmdProfile,
	string(CmdHelp):          CmdHelp,
	string(CmdFinalize):      CmdFinalize,
}

// ParseCommand maps a wire-format command name to a Command.
func ParseCommand(s string) (Command, bool) {
	c, ok := commands[s]
	return c, ok
}

// FileRef describes an uploaded attachment by its stored handle. The bot
// decides from the content type and size whether to accept it.
type FileRef struct {
	ID          string
	ContentType string
	Size        int64
}

// Event is one inbound command for one user.
type Event struct {
	UserID     int64
	Command    Command
	Text       string
	Attachment *FileRef
}
