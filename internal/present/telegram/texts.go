package telegram

import "fmt"

// Reply keyboard labels. Incoming text is matched against these verbatim.
const (
	LabelCancel = "Cancel"
	LabelReset  = "Reset"
	LabelEnd    = "End"

	LabelChooseChannel = "Choose channel"
	LabelChooseGroup   = "Choose group"
)

// Inline button labels.
const (
	labelRegisterBot = "Register new bot"
	labelBotList     = "Your bots"
	labelNewContent  = "New content"
	labelContentList = "Content list"
	labelGetLink     = "Get link"
	labelTurnOn      = "Turn on"
	labelTurnOff     = "Turn off"
)

// Request ids of the chat pickers shown while collecting must-join chats.
const (
	RequestChannel int64 = 58008
	RequestGroup   int64 = 8008
)

const (
	textCancelled       = "Cancelled."
	textMasterMenu      = "Register a bot to start sharing content."
	textOwnerMenu       = "What would you like to do?"
	textSendToken       = "Send the token of your bot, as given by @BotFather."
	textNotAToken       = "Please send the token correctly."
	textRevokedToken    = "This token is not valid."
	textRevokeOther     = "This bot is registered by someone else. Revoke its token in @BotFather and send the new one."
	textAlreadyAdded    = "This bot was already added, manage it from your bots."
	textNoBots          = "You haven't added any bots."
	textBotList         = "Your bots:"
	textNoContent       = "You haven't added any content yet."
	textContentList     = "Your content:"
	textNotFound        = "Not found"
	textSendMessages    = "Send the messages you want to share. Press End when you are done."
	textNothingAdded    = "You haven't added anything yet."
	textUnsupported     = "This kind of message can't be shared, send something else."
	textChooseMustJoins = "Pick the channels or groups people must join first, or press End."
	textEnterName       = "Enter a name:"
	textResetMessages   = "The list was cleared, send the messages again."
	textResetMustJoins  = "The list of chats was cleared."
	textJoinFirst       = "Join these chats first, then open the link again:"
)

func textBotCreated(username string) string {
	return fmt.Sprintf("Your bot was created. Now use your bot to upload content, @%s.", username)
}

func textRevokedCount(n int) string {
	return fmt.Sprintf("%d earlier registrations of this bot were revoked.", n)
}

func textBotDetail(username string, poweredOff bool) string {
	state := "on"
	if poweredOff {
		state = "off"
	}
	return fmt.Sprintf("@%s is %s.", username, state)
}

func textPowerAlready(username string, on bool) string {
	return fmt.Sprintf("Bot @%s was already %s.", username, onOff(on))
}

func textPowerChanged(username string, on bool) string {
	return fmt.Sprintf("Bot @%s turned %s.", username, onOff(on))
}

func textPoweredOff(parent string) string {
	return fmt.Sprintf("Your bot is off, enable it via @%s", parent)
}

func textKeepAdding(n int) string {
	return fmt.Sprintf("%d added. Keep sending, or press End.", n)
}

func textMustJoinAdded(n int) string {
	return fmt.Sprintf("%d chats added. Pick another one, or press End.", n)
}

func textContentAdded(name string, n int, link string) string {
	s := fmt.Sprintf("Content %q with %d messages was added.", name, n)
	if link != "" {
		s += "\n" + link
	}
	return s
}

func textBundleDetail(name string, n int) string {
	return fmt.Sprintf("%s\n%d messages", name, n)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
