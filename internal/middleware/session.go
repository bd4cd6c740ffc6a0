package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CurrUserKey is the session key holding the logged-in user's id.
const CurrUserKey = "curr_user"

const (
	flashMessageKey  = "flash_msg"
	flashCategoryKey = "flash_cat"
	sessionLocal     = "warbler.session"
	sessionCookie    = "warbler_session"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// NewSessionStore builds the cookie-keyed session store. A nil storage keeps
// sessions in process memory.
func NewSessionStore(storage fiber.Storage, ttl time.Duration, secure bool) *session.Store {
	cfg := session.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:" + sessionCookie,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: "Lax",
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return session.New(cfg)
}

// requestSession is loaded once per request and saved once, after the handler.
type requestSession struct {
	sess  *session.Session
	dirty bool
}

// SessionManager implements the anonymous/authenticated gate on top of a session store.
type SessionManager struct {
	store *session.Store
}

func NewSessionManager(store *session.Store) *SessionManager {
	return &SessionManager{store: store}
}

func (m *SessionManager) load(c *fiber.Ctx) (*requestSession, error) {
	if rs, ok := c.Locals(sessionLocal).(*requestSession); ok {
		return rs, nil
	}
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, err
	}
	rs := &requestSession{sess: sess}
	c.Locals(sessionLocal, rs)
	return rs, nil
}

func (m *SessionManager) save(c *fiber.Ctx) error {
	rs, ok := c.Locals(sessionLocal).(*requestSession)
	if !ok || !rs.dirty {
		return nil
	}
	rs.dirty = false
	return rs.sess.Save()
}

// Gate resolves the session's user id into c.Locals("userID") and persists any
// session changes the handler made. verify reports whether the id still names
// an existing user; stale ids are dropped from the session.
func (m *SessionManager) Gate(verify func(ctx context.Context, id uint) (bool, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rs, err := m.load(c)
		if err != nil {
			return err
		}

		if id, ok := rs.sess.Get(CurrUserKey).(uint); ok {
			exists, err := verify(c.UserContext(), id)
			if err != nil {
				return err
			}
			if exists {
				setUser(c, id)
			} else {
				Logger.WarnContext(c.UserContext(), "dropping session for missing user", slog.Any("user_id", id))
				rs.sess.Delete(CurrUserKey)
				rs.dirty = true
			}
		}

		if err := c.Next(); err != nil {
			return err
		}
		return m.save(c)
	}
}

// Login moves the request to the authenticated state under a fresh session id.
func (m *SessionManager) Login(c *fiber.Ctx, userID uint) error {
	rs, err := m.load(c)
	if err != nil {
		return err
	}
	if err := rs.sess.Regenerate(); err != nil {
		return err
	}
	rs.sess.Set(CurrUserKey, userID)
	rs.dirty = true
	setUser(c, userID)
	return nil
}

// Logout clears the user id but keeps the session so a flash can survive.
func (m *SessionManager) Logout(c *fiber.Ctx) error {
	rs, err := m.load(c)
	if err != nil {
		return err
	}
	rs.sess.Delete(CurrUserKey)
	rs.dirty = true
	c.Locals("userID", nil)
	return nil
}

// CurrentUserID returns the id resolved by Gate, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}

func (m *SessionManager) Flash(c *fiber.Ctx, category, message string) error {
	rs, err := m.load(c)
	if err != nil {
		return err
	}
	rs.sess.Set(flashCategoryKey, category)
	rs.sess.Set(flashMessageKey, message)
	rs.dirty = true
	return nil
}

// PopFlash returns and clears the pending flash message.
func (m *SessionManager) PopFlash(c *fiber.Ctx) (*Flash, error) {
	rs, err := m.load(c)
	if err != nil {
		return nil, err
	}
	msg, ok := rs.sess.Get(flashMessageKey).(string)
	if !ok || msg == "" {
		return nil, nil
	}
	category, _ := rs.sess.Get(flashCategoryKey).(string)
	rs.sess.Delete(flashMessageKey)
	rs.sess.Delete(flashCategoryKey)
	rs.dirty = true
	return &Flash{Category: category, Message: msg}, nil
}

// RequireLogin redirects anonymous requests home before the handler runs.
func (m *SessionManager) RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); ok {
			return c.Next()
		}
		if err := m.Flash(c, "danger", "Access unauthorized."); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusFound)
	}
}

func setUser(c *fiber.Ctx, id uint) {
	c.Locals("userID", id)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id))
}
