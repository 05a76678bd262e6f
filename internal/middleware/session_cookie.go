package middleware

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "portal_session"

// ErrNoSessionCookie はセッションCookieが存在しないことを表す。
var ErrNoSessionCookie = errors.New("session cookie not found")

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // 秒
}

// CookieCodec はセッションIDを署名・暗号化してCookieに格納する。
// 改ざんされたCookieや期限切れのCookieはデコード時に拒否される。
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	config CookieConfig
}

// NewCookieCodec はSESSION_SECRETからハッシュ鍵と暗号鍵を導出してCookieCodecを生成する。
func NewCookieCodec(secret string, config CookieConfig) *CookieCodec {
	hashKey := sha256.Sum256([]byte("eduportal-hash:" + secret))
	blockKey := sha256.Sum256([]byte("eduportal-block:" + secret))

	sc := securecookie.New(hashKey[:], blockKey[:])
	if config.MaxAge > 0 {
		sc.MaxAge(config.MaxAge)
	}

	return &CookieCodec{sc: sc, config: config}
}

// Write はセッションIDをエンコードしてSet-Cookieヘッダーを書き込む。
func (c *CookieCodec) Write(w http.ResponseWriter, sessionID string) error {
	encoded, err := c.sc.Encode(SessionCookieName, sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   c.config.MaxAge,
		Expires:  time.Now().Add(time.Duration(c.config.MaxAge) * time.Second),
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read はリクエストのCookieからセッションIDをデコードする。
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSessionCookie
	}

	var sessionID string
	if err := c.sc.Decode(SessionCookieName, cookie.Value, &sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Clear はセッションCookieを削除する。
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
