// Package notify builds the confirmation messages shown after a contact form submit.
package notify

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notice struct {
	Kind        Kind          `json:"kind"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Phone       string        `json:"phone,omitempty"`
	PhoneHref   string        `json:"phone_href,omitempty"`
	AutoHide    time.Duration `json:"-"`
}

// Phone is the fallback contact number included on failure.
type Phone struct {
	Display string // (843) 251-8798
	E164    string // +18432518798
}

func (p Phone) Href() string {
	if p.E164 == "" {
		return ""
	}
	return "tel:" + p.E164
}

func Succeeded(autoHide time.Duration) Notice {
	return Notice{
		Kind:        KindSuccess,
		Title:       "Message sent",
		Description: "Thanks, we'll get back to you shortly.",
		AutoHide:    autoHide,
	}
}

func Failed(p Phone) Notice {
	desc := "Please try again in a moment."
	if p.Display != "" {
		desc = fmt.Sprintf("Please call/text %s and we'll take care of you.", p.Display)
	}
	return Notice{
		Kind:        KindError,
		Title:       "Couldn't send your message",
		Description: desc,
		Phone:       p.Display,
		PhoneHref:   p.Href(),
	}
}

func (n Notice) IsError() bool { return n.Kind == KindError }

// AutoHideMillis is 0 when the notice stays until dismissed.
func (n Notice) AutoHideMillis() int64 { return n.AutoHide.Milliseconds() }
