package telegram

import (
	"fmt"
	"strconv"
)

// SimpleButton is a parameterless menu button.
type SimpleButton struct {
	Name string
}

const (
	ButtonRegisterBot = "register_bot"
	ButtonBotList     = "bot_list"
	ButtonNewContent  = "new_content"
	ButtonContentList = "content_list"
)

var simpleButtons = map[string]bool{
	ButtonRegisterBot: true,
	ButtonBotList:     true,
	ButtonNewContent:  true,
	ButtonContentList: true,
}

func (b *SimpleButton) Prefix() string   { return "simplebutton" }
func (b *SimpleButton) Fields() []string { return []string{b.Name} }

func (b *SimpleButton) SetFields(fields []string) error {
	if !simpleButtons[fields[0]] {
		return fmt.Errorf("unknown button %q", fields[0])
	}
	b.Name = fields[0]
	return nil
}

// ContentAction targets one bundle.
type ContentAction struct {
	PK     int64
	Action string
}

const (
	ContentGet     = "get"
	ContentGetLink = "get_link"
)

func (c *ContentAction) Prefix() string { return "content" }

func (c *ContentAction) Fields() []string {
	return []string{strconv.FormatInt(c.PK, 10), c.Action}
}

func (c *ContentAction) SetFields(fields []string) error {
	pk, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return err
	}
	switch fields[1] {
	case ContentGet, ContentGetLink:
	default:
		return fmt.Errorf("unknown content action %q", fields[1])
	}
	c.PK, c.Action = pk, fields[1]
	return nil
}

// BotAction targets one bot of the sender.
type BotAction struct {
	PK     int64
	Action string
}

const (
	BotGet      = "get"
	BotPowerOn  = "power_on"
	BotPowerOff = "power_off"
)

func (b *BotAction) Prefix() string { return "bot" }

func (b *BotAction) Fields() []string {
	return []string{strconv.FormatInt(b.PK, 10), b.Action}
}

func (b *BotAction) SetFields(fields []string) error {
	pk, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return err
	}
	switch fields[1] {
	case BotGet, BotPowerOn, BotPowerOff:
	default:
		return fmt.Errorf("unknown bot action %q", fields[1])
	}
	b.PK, b.Action = pk, fields[1]
	return nil
}
