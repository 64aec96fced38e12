package rest

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/golang-jwt/jwt/v4"
	"github.com/hirebridge/api/internal/configure"
	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/data/mutate"
	"github.com/hirebridge/api/internal/data/query"
	"github.com/hirebridge/api/internal/data/store"
	"github.com/hirebridge/api/internal/events"
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/realtime"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/svc/gateway"
	"github.com/hirebridge/api/internal/svc/identity"
	"github.com/hirebridge/api/internal/svc/limiter"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/hirebridge/api/internal/testutil"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const (
	secret  = "test-secret"
	timeout = time.Second * 2
)

type portal struct {
	gctx   global.Context
	client *fasthttp.HostClient
	wsAddr string
}

func newPortal(t *testing.T) *portal {
	t.Helper()

	config := &configure.Config{}
	config.Credentials.JWTSecret = secret
	config.Credentials.Producers = []string{"svc-jobs"}

	gctx, cancel := global.WithCancel(global.New(context.Background(), config))

	st := store.NewMemory()
	dir := presences.New()
	gw := gateway.New(gateway.Options{Presences: dir})

	inst := gctx.Inst()
	inst.Store = st
	inst.Presences = dir
	inst.Gateway = gw
	inst.Identity = identity.New(identity.Options{JWTSecret: secret})
	inst.Limiter = limiter.New()
	inst.Query = query.New(st)
	inst.Mutate = mutate.New(mutate.InstanceOptions{Store: st, Gateway: gw})

	rt := realtime.NewServer(realtime.Options{
		Presences:         dir,
		Resolver:          inst.Identity,
		HeartbeatInterval: time.Minute,
	})
	gw.AttachTransport(rt)

	wsLn, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.IsNil(t, err, "listen")

	p := &portal{
		gctx:   gctx,
		wsAddr: wsLn.Addr().String(),
	}

	restLn := fasthttputil.NewInmemoryListener()
	s := &HttpServer{}

	restSrv := &fasthttp.Server{Handler: s.Handler(gctx)}
	wsSrv := &fasthttp.Server{Handler: rt.HandleUpgrade}

	go func() { _ = restSrv.Serve(restLn) }()
	go func() { _ = wsSrv.Serve(wsLn) }()

	p.client = &fasthttp.HostClient{
		Addr: "portal.test",
		Dial: func(addr string) (net.Conn, error) {
			return restLn.Dial()
		},
	}

	t.Cleanup(func() {
		cancel()
		_ = rt.Close()
		_ = restLn.Close()
		_ = wsLn.Close()
	})

	return p
}

func token(t *testing.T, userID string) string {
	t.Helper()

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	testutil.IsNil(t, err, "sign token")

	return s
}

func (p *portal) do(t *testing.T, method, uri, actor string, body any, out any) int {
	t.Helper()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://portal.test" + uri)
	req.Header.SetMethod(method)

	if actor != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, actor))
	}

	if body != nil {
		b, err := json.Marshal(body)
		testutil.IsNil(t, err, "encode body")

		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}

	testutil.IsNil(t, p.client.DoTimeout(req, resp, timeout), method+" "+uri)

	if out != nil {
		testutil.IsNil(t, json.Unmarshal(resp.Body(), out), "decode response")
	}

	return resp.StatusCode()
}

func (p *portal) connect(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	conn, _, err := dialer.Dial("ws://"+p.wsAddr+"/v1/ws?token="+token(t, userID), nil)
	testutil.IsNil(t, err, "dial")

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, d time.Duration) (events.Message[events.DispatchPayload], error) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(d))

	_, b, err := conn.ReadMessage()
	if err != nil {
		return events.Message[events.DispatchPayload]{}, err
	}

	raw, err := events.Decode(b)
	testutil.IsNil(t, err, "decode frame")

	return events.ConvertMessage[events.DispatchPayload](raw)
}

type sendResponse struct {
	Message   model.ChatMessage `json:"message"`
	Delivered bool              `json:"delivered"`
}

type presenceResponse struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

func TestCandidateEmployerScenario(t *testing.T) {
	p := newPortal(t)

	conn := p.connect(t, "cand1")

	hello, err := readFrame(t, conn, timeout)
	testutil.IsNil(t, err, "hello")
	testutil.Assert(t, events.OpcodeHello, hello.Op, "hello op")

	var presence presenceResponse
	testutil.Assert(t, 200, p.do(t, "GET", "/v1/presences/cand1", "emp1", nil, &presence), "presence status")
	testutil.Assert(t, true, presence.Online, "candidate online")

	var sent sendResponse
	status := p.do(t, "POST", "/v1/messages", "emp1", map[string]string{
		"recipient_id": "cand1",
		"content":      "We'd like to interview you",
	}, &sent)
	testutil.Assert(t, 201, status, "send status")
	testutil.Assert(t, true, sent.Delivered, "pushed")

	frame, err := readFrame(t, conn, timeout)
	testutil.IsNil(t, err, "dispatch")
	testutil.Assert(t, events.OpcodeDispatch, frame.Op, "dispatch op")
	testutil.Assert(t, events.KindMessage, frame.Data.Type, "dispatch kind")

	var pushed model.ChatMessage
	testutil.IsNil(t, json.Unmarshal(frame.Data.Body, &pushed), "pushed body")
	testutil.Assert(t, sent.Message.ID, pushed.ID, "pushed the persisted document")

	_, err = readFrame(t, conn, time.Millisecond*100)
	testutil.IsNotNil(t, err, "pushed exactly once")

	_ = conn.Close()

	testutil.Eventually(t, timeout, func() bool {
		var pr presenceResponse
		p.do(t, "GET", "/v1/presences/cand1", "emp1", nil, &pr)

		return !pr.Online
	}, "candidate offline")

	status = p.do(t, "POST", "/v1/messages", "emp1", map[string]string{
		"recipient_id": "cand1",
		"content":      "Are you still available?",
	}, &sent)
	testutil.Assert(t, 201, status, "offline send status")
	testutil.Assert(t, false, sent.Delivered, "not pushed")

	var conv []model.ChatMessage
	testutil.Assert(t, 200, p.do(t, "GET", "/v1/messages/emp1", "cand1", nil, &conv), "conversation status")
	testutil.Assert(t, 2, len(conv), "both messages persisted")
	testutil.Assert(t, "Are you still available?", conv[1].Content, "latest message last")

	var read struct {
		Updated int64 `json:"updated"`
	}
	testutil.Assert(t, 200, p.do(t, "POST", "/v1/messages/emp1/read", "cand1", nil, &read), "read status")
	testutil.Assert(t, int64(2), read.Updated, "marked read")
}

func TestNotifications(t *testing.T) {
	p := newPortal(t)

	var created struct {
		Notification model.Notification `json:"notification"`
		Delivered    bool               `json:"delivered"`
	}

	status := p.do(t, "POST", "/v1/notifications", "svc-jobs", map[string]string{
		"user_id": "cand1",
		"kind":    "APPLICATION",
		"title":   "Application viewed",
	}, &created)
	testutil.Assert(t, 201, status, "create status")
	testutil.Assert(t, false, created.Delivered, "offline")

	conn := p.connect(t, "cand1")
	defer conn.Close()

	_, err := readFrame(t, conn, timeout)
	testutil.IsNil(t, err, "hello")

	var list []model.Notification
	testutil.Assert(t, 200, p.do(t, "GET", "/v1/notifications", "cand1", nil, &list), "list status")
	testutil.Assert(t, 1, len(list), "listed")

	var apiErr rest.APIErrorResponse
	uri := "/v1/notifications/" + created.Notification.ID.Hex() + "/read"
	testutil.Assert(t, 403, p.do(t, "POST", uri, "cand2", nil, &apiErr), "other user")

	var n model.Notification
	testutil.Assert(t, 200, p.do(t, "POST", uri, "cand1", nil, &n), "read status")
	testutil.Assert(t, true, n.Read, "read")

	frame, err := readFrame(t, conn, timeout)
	testutil.IsNil(t, err, "update pushed")
	testutil.Assert(t, events.KindNotification, frame.Data.Type, "notification kind")

	testutil.Assert(t, 400, p.do(t, "POST", "/v1/notifications/nope/read", "cand1", nil, &apiErr), "bad id")
}

func TestNotificationProducers(t *testing.T) {
	p := newPortal(t)

	conn := p.connect(t, "emp1")
	defer conn.Close()

	_, err := readFrame(t, conn, timeout)
	testutil.IsNil(t, err, "hello")

	var apiErr rest.APIErrorResponse
	status := p.do(t, "POST", "/v1/notifications", "cand2", map[string]string{
		"user_id": "emp1",
		"title":   "Your session expired",
		"link":    "https://evil.example/login",
	}, &apiErr)
	testutil.Assert(t, 403, status, "users cannot notify others")
	testutil.Assert(t, errors.ErrInsufficientPrivilege().Code(), apiErr.ErrorCode, "insufficient privilege code")

	_, err = readFrame(t, conn, time.Millisecond*100)
	testutil.IsNotNil(t, err, "nothing pushed")

	var list []model.Notification
	testutil.Assert(t, 200, p.do(t, "GET", "/v1/notifications", "emp1", nil, &list), "list status")
	testutil.Assert(t, 0, len(list), "nothing persisted")

	var created struct {
		Notification model.Notification `json:"notification"`
		Delivered    bool               `json:"delivered"`
	}
	status = p.do(t, "POST", "/v1/notifications", "emp1", map[string]string{
		"user_id": "emp1",
		"title":   "Interview tomorrow",
	}, &created)
	testutil.Assert(t, 201, status, "users can notify themselves")
	testutil.Assert(t, true, created.Delivered, "pushed to own session")
}

func TestErrors(t *testing.T) {
	p := newPortal(t)

	var apiErr rest.APIErrorResponse

	testutil.Assert(t, 401, p.do(t, "GET", "/v1/notifications", "", nil, &apiErr), "no token")
	testutil.Assert(t, errors.ErrUnauthorized().Code(), apiErr.ErrorCode, "unauthorized code")

	testutil.Assert(t, 404, p.do(t, "GET", "/v1/nothing", "cand1", nil, &apiErr), "unknown route")
	testutil.Assert(t, errors.ErrUnknownRoute().Code(), apiErr.ErrorCode, "unknown route code")

	testutil.Assert(t, 400, p.do(t, "POST", "/v1/messages", "emp1", map[string]string{
		"recipient_id": "undefined",
		"content":      "hi",
	}, &apiErr), "placeholder recipient")
	testutil.Assert(t, errors.ErrEmptyField().Code(), apiErr.ErrorCode, "empty field code")

	var sent sendResponse
	for i := 0; i < 30; i++ {
		testutil.Assert(t, 201, p.do(t, "POST", "/v1/messages", "emp2", map[string]string{
			"recipient_id": "cand1",
			"content":      "hi",
		}, &sent), "within rate limit")
	}

	testutil.Assert(t, 429, p.do(t, "POST", "/v1/messages", "emp2", map[string]string{
		"recipient_id": "cand1",
		"content":      "hi",
	}, &apiErr), "rate limited")
	testutil.Assert(t, errors.ErrRateLimited().Code(), apiErr.ErrorCode, "rate limited code")

	var root struct {
		Online bool `json:"online"`
	}
	testutil.Assert(t, 200, p.do(t, "GET", "/v1", "", nil, &root), "root")
	testutil.Assert(t, true, root.Online, "online")
}
