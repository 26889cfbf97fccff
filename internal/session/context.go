package session

import (
	"sync"

	"car-showroom/internal/domain"
)

// Theme is the public look of the site.
type Theme struct {
	PrimaryColor string `json:"primaryColor"`
	Logo         string `json:"logo"`
	WhatsApp     string `json:"whatsapp"`
	Instagram    string `json:"instagram"`
}

func ThemeFromSettings(s *domain.Settings) Theme {
	if s == nil {
		return Theme{}
	}
	return Theme{
		PrimaryColor: s.PrimaryColor,
		Logo:         s.Logo,
		WhatsApp:     s.WhatsApp,
		Instagram:    s.Instagram,
	}
}

// AppContext is created once at startup and shared by every request.
// SetTheme is the only writer.
type AppContext struct {
	mu    sync.RWMutex
	theme Theme
}

func NewAppContext(initial Theme) *AppContext {
	return &AppContext{theme: initial}
}

func (a *AppContext) Theme() Theme {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.theme
}

func (a *AppContext) SetTheme(t Theme) {
	a.mu.Lock()
	a.theme = t
	a.mu.Unlock()
}

// View is what a client sees about its own session.
type View struct {
	Signed bool         `json:"signed"`
	User   *domain.User `json:"user,omitempty"`
	Theme  Theme        `json:"theme"`
}

// View combines the theme with the caller's auth state; user may be nil.
func (a *AppContext) View(user *domain.User) View {
	return View{Signed: user != nil, User: user, Theme: a.Theme()}
}
