package devserver_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/crypto"
	"signet/internal/devserver"
	"signet/internal/domain"
	"signet/internal/transport"
)

var secret = []byte("test-secret")

type user struct {
	name string
	priv ed25519.PrivateKey
	pub  string
}

func newServer(t *testing.T, opts ...devserver.Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(devserver.New(secret, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func register(t *testing.T, srv *httptest.Server, name string) user {
	t.Helper()
	priv, pub, err := crypto.GenerateSigningKey()
	require.NoError(t, err)
	resp, _ := postJSON(t, srv.URL+"/users", domain.Registration{Username: domain.Username(name), PublicKey: pub})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return user{name: name, priv: priv, pub: pub}
}

func challenge(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp, err := http.Get(srv.URL + "/token/" + name)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c domain.Challenge
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&c))
	require.NotEmpty(t, c.SessionToken)
	return c.SessionToken
}

func submission(t *testing.T, u user, token string) domain.AuthSubmission {
	t.Helper()
	payload, err := crypto.AuthPayload(token, domain.Username(u.name), u.pub)
	require.NoError(t, err)
	sig, err := crypto.SignDetached(u.priv, payload)
	require.NoError(t, err)
	fp, err := crypto.FingerprintAuthorizedKey(u.pub)
	require.NoError(t, err)
	return domain.AuthSubmission{Signature: sig, Fingerprint: fp, Username: domain.Username(u.name)}
}

func authenticate(t *testing.T, srv *httptest.Server, u user) domain.AuthVerdict {
	t.Helper()
	resp, body := postJSON(t, srv.URL+"/auth", submission(t, u, challenge(t, srv, u.name)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v domain.AuthVerdict
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestRegisterAndFind(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")

	resp, err := http.Get(srv.URL + "/users/name/alice")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec devserver.UserRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, domain.Username("alice"), rec.Username)
	assert.Equal(t, alice.pub, rec.PublicKey)
	assert.NotEmpty(t, rec.ID)

	fp, err := crypto.FingerprintAuthorizedKey(alice.pub)
	require.NoError(t, err)
	assert.Equal(t, fp, rec.Fingerprint)

	missing, err := http.Get(srv.URL + "/users/name/nobody")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestRegister_Rejections(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")

	resp, _ := postJSON(t, srv.URL+"/users", domain.Registration{Username: "alice", PublicKey: alice.pub})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/users", domain.Registration{Username: "bob", PublicKey: "not a key"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/users", domain.Registration{PublicKey: alice.pub})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChallenge_UnknownUser(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/token/nobody")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuth_Accepts(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")

	v := authenticate(t, srv, alice)
	assert.True(t, v.Success)
	assert.NotEmpty(t, v.Token)
}

func TestAuth_ChallengeIsSingleUse(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")

	sub := submission(t, alice, challenge(t, srv, "alice"))
	_, body := postJSON(t, srv.URL+"/auth", sub)
	assert.JSONEq(t, `{"success":true,"token":"`+tokenOf(t, body)+`"}`, string(body))

	_, body = postJSON(t, srv.URL+"/auth", sub)
	assert.JSONEq(t, `{"success":false}`, string(body))
}

func tokenOf(t *testing.T, body []byte) string {
	t.Helper()
	var v domain.AuthVerdict
	require.NoError(t, json.Unmarshal(body, &v))
	return v.Token
}

func TestAuth_Rejections(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")
	mallory := register(t, srv, "mallory")

	cases := map[string]func(sub *domain.AuthSubmission){
		"wrong key": func(sub *domain.AuthSubmission) {
			other := submission(t, user{name: "alice", priv: mallory.priv, pub: alice.pub}, "x")
			sub.Signature = other.Signature
		},
		"wrong fingerprint": func(sub *domain.AuthSubmission) {
			fp, _ := crypto.FingerprintAuthorizedKey(mallory.pub)
			sub.Fingerprint = fp
		},
		"garbage signature": func(sub *domain.AuthSubmission) {
			sub.Signature = "!!"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sub := submission(t, alice, challenge(t, srv, "alice"))
			mutate(&sub)
			_, body := postJSON(t, srv.URL+"/auth", sub)
			assert.JSONEq(t, `{"success":false}`, string(body))
		})
	}
}

func TestAuth_ExpiredChallenge(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	srv := newServer(t, devserver.WithClock(clock), devserver.WithChallengeTTL(time.Minute))
	alice := register(t, srv, "alice")

	sub := submission(t, alice, challenge(t, srv, "alice"))
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	_, body := postJSON(t, srv.URL+"/auth", sub)
	assert.JSONEq(t, `{"success":false}`, string(body))
}

func dial(t *testing.T, srv *httptest.Server, username, deviceID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	q := url.Values{"username": {username}, "deviceId": {deviceID}, "token": {token}}
	target, err := transport.DialURL(srv.URL, q)
	require.NoError(t, err)
	conn, resp, err := websocket.DefaultDialer.Dial(target, nil)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func readFrame(t *testing.T, conn *websocket.Conn) transport.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f transport.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func connect(t *testing.T, srv *httptest.Server, u user) *websocket.Conn {
	t.Helper()
	v := authenticate(t, srv, u)
	require.True(t, v.Success)
	conn, _, err := dial(t, srv, u.name, "dev-"+u.name, v.Token)
	require.NoError(t, err)
	ack := readFrame(t, conn)
	require.Equal(t, domain.EventConnect, ack.Event)
	return conn
}

func TestSocket_RejectsBadTokens(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")
	bobToken := authenticate(t, srv, bob).Token

	_, resp, err := dial(t, srv, "alice", "dev", "not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "alice", "dev", bobToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "alice", "", authenticate(t, srv, alice).Token)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocket_AckCarriesDescriptor(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")

	conn, _, err := dial(t, srv, "alice", "dev-9", authenticate(t, srv, alice).Token)
	require.NoError(t, err)

	ack := readFrame(t, conn)
	assert.Equal(t, domain.EventConnect, ack.Event)
	assert.JSONEq(t, `{"username":"alice","deviceId":"dev-9"}`, string(ack.Data))
}

func TestSocket_RoutesInvites(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	ac := connect(t, srv, alice)
	bc := connect(t, srv, bob)

	require.NoError(t, ac.WriteJSON(map[string]any{
		"event": domain.CommandSendInvite,
		"data":  map[string]string{"username": "bob", "signature": "sig"},
	}))
	f := readFrame(t, bc)
	assert.Equal(t, domain.EventInvite, f.Event)

	fp, err := crypto.FingerprintAuthorizedKey(alice.pub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"alice","signature":"sig","fingerprint":"`+fp.String()+`"}`, string(f.Data))

	require.NoError(t, ac.WriteJSON(map[string]any{
		"event": domain.CommandRemoveInvite,
		"data":  map[string]string{"username": "bob"},
	}))
	f = readFrame(t, bc)
	assert.Equal(t, domain.EventUninvite, f.Event)
	assert.JSONEq(t, `{"user":"alice"}`, string(f.Data))
}

func TestSocket_ReportsErrorsWithoutClosing(t *testing.T) {
	srv := newServer(t)
	alice := register(t, srv, "alice")
	ac := connect(t, srv, alice)

	send := func(event string, data any) transport.Frame {
		require.NoError(t, ac.WriteJSON(map[string]any{"event": event, "data": data}))
		return readFrame(t, ac)
	}

	f := send(domain.CommandSendInvite, map[string]string{"username": "ghost", "signature": "s"})
	assert.Equal(t, domain.EventError, f.Event)
	assert.True(t, strings.Contains(string(f.Data), "ghost"))

	f = send(domain.CommandSendInvite, map[string]string{"username": "alice"})
	assert.Equal(t, domain.EventError, f.Event)

	f = send("dance", nil)
	assert.Equal(t, domain.EventError, f.Event)
	assert.Contains(t, string(f.Data), "dance")

	require.NoError(t, ac.WriteMessage(websocket.TextMessage, []byte("{")))
	f = readFrame(t, ac)
	assert.Equal(t, domain.EventError, f.Event)
}
