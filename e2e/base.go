package e2e

import (
	"chat-relay/auth"
	chatclient "chat-relay/infrastructure/grpc/client"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	tokens *auth.TokenManager
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.HTTPAddr == "" {
		s.T().Skip("E2E_HTTP_ADDR not set")
	}
	s.tokens, err = auth.NewTokenManager(s.Config.JWTSecret, time.Hour)
	s.Require().NoError(err)
}

// Step prints a colorized header for a scenario step
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

func (s *BaseSuite) Token(userID string) string {
	token, err := s.tokens.Generate(userID)
	s.Require().NoError(err)
	return token
}

// REST returns a resty client authenticated as userID, logging every call.
func (s *BaseSuite) REST(userID string) *resty.Client {
	return resty.New().
		SetBaseURL("http://" + s.Config.HTTPAddr).
		SetAuthToken(s.Token(userID)).
		SetTimeout(5 * time.Second).
		OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
			line := fmt.Sprintf("HTTP %s %s [%d] in %v", res.Request.Method, res.Request.URL, res.StatusCode(), res.Time())
			if s.Config.DebugJSON {
				line += "\nRESPONSE:\n" + res.String()
			}
			s.T().Log(line)
			return nil
		})
}

// Socket opens the real-time channel as userID.
func (s *BaseSuite) Socket(userID string) *websocket.Conn {
	url := "ws://" + strings.TrimPrefix(s.Config.HTTPAddr, "http://") + "/ws?token=" + s.Token(userID)
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusSwitchingProtocols, res.StatusCode)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// GRPC returns a chat.v1 client authenticated as userID.
func (s *BaseSuite) GRPC(userID string) *chatclient.ChatClient {
	if s.Config.GRPCAddr == "" {
		s.T().Skip("E2E_GRPC_ADDR not set")
	}
	client, err := chatclient.NewChatClient(s.Config.GRPCAddr, s.Token(userID))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = client.Close() })
	return client
}

type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Await reads frames until one named event arrives.
func (s *BaseSuite) Await(conn *websocket.Conn, event string) Frame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	for {
		var raw struct {
			Event string `json:"event"`
		}
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err)
		if err := json.Unmarshal(data, &raw); err != nil || raw.Event != event {
			continue
		}
		var frame Frame
		// Online lists carry an array, they are not decoded into Data
		_ = json.Unmarshal(data, &frame)
		frame.Event = raw.Event
		return frame
	}
}
