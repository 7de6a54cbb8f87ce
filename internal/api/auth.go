package api

import (
	"context"
	"errors"
	"net/http"

	"expensetrack/internal/core"
	"expensetrack/internal/log"
)

// Login exchanges credentials for the session identifying the user.
// Rejected credentials surface as a server error carrying the remote's
// status and message; an unreachable backend as a network error.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.Session, error) {
	var sess core.Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &sess); err != nil {
		return core.Session{}, err
	}
	if sess.ID == "" || sess.Username == "" {
		return core.Session{}, requestError(errors.New("invalid response from server"))
	}
	c.logger.Info("Logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, sess.ID.String(),
		log.FieldUsername, sess.Username)
	return sess, nil
}

// Signup creates the account, then immediately logs in with the same
// credentials: signup alone does not establish a session. When creation
// succeeds but the chained login fails, the login failure is returned and
// the account may nevertheless exist.
func (c *Client) Signup(ctx context.Context, creds core.Credentials) (core.Session, error) {
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", creds, nil); err != nil {
		return core.Session{}, err
	}
	c.logger.Info("Account created, chaining login", log.FieldOperation, log.OpSignup)
	return c.Login(ctx, creds)
}
