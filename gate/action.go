package gate

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// Domain actions granted separately from plain updates.
	ActionConvert  Action = "convert"
	ActionStatus   Action = "status"
	ActionPrint    Action = "print"
	ActionBill     Action = "bill"
	ActionReply    Action = "reply"
	ActionSend     Action = "send"
	ActionGenerate Action = "generate"
)

// CRUD is the list/view/create/update set most resources share.
var CRUD = []Action{ActionList, ActionView, ActionCreate, ActionUpdate}
