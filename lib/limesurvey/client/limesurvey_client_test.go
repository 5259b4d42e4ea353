package limesurveyclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	limesurveyapimodels "admission-backend/models/api/limesurvey"

	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu       sync.Mutex
	calls    []string
	handlers map[string]func(params []any) any
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/index.php/admin/remotecontrol" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	req := limesurveyapimodels.RPCRequest{}
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.calls = append(f.calls, req.Method)
	f.mu.Unlock()
	handler, ok := f.handlers[req.Method]
	var result any = map[string]any{"status": "unknown method"}
	if ok {
		result = handler(req.Params)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": req.ID, "result": result, "error": nil})
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		handlers: map[string]func(params []any) any{
			mGetSessionKey: func(params []any) any {
				if params[0] == "admin" && params[1] == "secret" {
					return "session-1"
				}
				return map[string]any{"status": "Invalid user name or password"}
			},
			mReleaseSessionKey: func(params []any) any { return "OK" },
		},
	}
}

type memoryCache struct {
	data map[string]string
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestLimeSurveyClient(t *testing.T) {
	t.Run(`TestConnection check`, func(t *testing.T) {
		fake := newFakeServer()
		srv := httptest.NewServer(fake)
		defer srv.Close()
		client := NewInstance(5*time.Second, nil, 0)

		path, err := client.TestConnection(context.TODO(), Connection{BaseURL: srv.URL, Username: "admin", Password: "secret"})
		require.Nil(t, err)
		require.Equal(t, "/index.php/admin/remotecontrol", path)

		_, err = client.TestConnection(context.TODO(), Connection{BaseURL: srv.URL, Username: "admin", Password: "wrong"})
		require.NotNil(t, err)
		var rpcErr RPCError
		require.ErrorAs(t, err, &rpcErr)
		require.Equal(t, "Invalid user name or password", rpcErr.Status)
	})

	t.Run(`ListQuestions check`, func(t *testing.T) {
		fake := newFakeServer()
		fake.handlers[mListQuestions] = func(params []any) any {
			return []map[string]any{
				{"qid": 11, "parent_qid": 0, "gid": "1", "type": "L", "title": "G01Q01", "question": "Civilité", "mandatory": "Y"},
			}
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()
		client := NewInstance(5*time.Second, nil, 0)

		list, err := client.ListQuestions(context.TODO(), Connection{BaseURL: srv.URL, Username: "admin", Password: "secret"}, "123")
		require.Nil(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "11", list[0].QID.String())
		require.Equal(t, "G01Q01", list[0].Title)
		require.Equal(t, []string{mGetSessionKey, mListQuestions, mReleaseSessionKey}, fake.calls)
	})

	t.Run(`ExportResponses check`, func(t *testing.T) {
		fake := newFakeServer()
		export := `{"responses":[{"1":{"id":"1","G01Q02":"Dupont"}},{"id":"2","G01Q02":"Martin"}]}`
		fake.handlers[mExportResponses] = func(params []any) any {
			return base64.StdEncoding.EncodeToString([]byte(export))
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()
		cache := &memoryCache{data: map[string]string{}}
		client := NewInstance(5*time.Second, cache, time.Minute)
		conn := Connection{ServerID: "srv", BaseURL: srv.URL, Username: "admin", Password: "secret"}

		list, err := client.ExportResponses(context.TODO(), conn, "123")
		require.Nil(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "Dupont", list[0]["G01Q02"])
		require.Equal(t, "2", list[1]["id"])
		require.Equal(t, "session-1", cache.data[sessionCacheKey(conn)])
		// с кешем сессия не освобождается после вызова
		require.NotContains(t, fake.calls, mReleaseSessionKey)
	})

	t.Run(`ExportResponses empty check`, func(t *testing.T) {
		fake := newFakeServer()
		fake.handlers[mExportResponses] = func(params []any) any {
			return map[string]any{"status": "No Response found"}
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()
		client := NewInstance(5*time.Second, nil, 0)

		list, err := client.ExportResponses(context.TODO(), Connection{BaseURL: srv.URL, Username: "admin", Password: "secret"}, "123")
		require.Nil(t, err)
		require.Empty(t, list)
	})

	t.Run(`invalid cached session check`, func(t *testing.T) {
		fake := newFakeServer()
		fake.handlers[mListGroups] = func(params []any) any {
			if params[0] != "session-1" {
				return map[string]any{"status": "Invalid session key"}
			}
			return []map[string]any{{"gid": 1, "group_name": "Identité"}}
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()
		conn := Connection{ServerID: "srv", BaseURL: srv.URL, Username: "admin", Password: "secret"}
		cache := &memoryCache{data: map[string]string{sessionCacheKey(conn): "expired"}}
		client := NewInstance(5*time.Second, cache, time.Minute)

		list, err := client.ListGroups(context.TODO(), conn, "123")
		require.Nil(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "Identité", list[0].GroupName)
		require.Equal(t, "session-1", cache.data[sessionCacheKey(conn)])
	})

	t.Run(`unreachable server check`, func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		client := NewInstance(5*time.Second, nil, 0)

		_, err := client.ListQuestions(context.TODO(), Connection{BaseURL: srv.URL, Username: "admin", Password: "secret"}, "123")
		require.NotNil(t, err)
	})
}
