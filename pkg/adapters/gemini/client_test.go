package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	testhelpers "mercator-hq/callisto/internal/adapters"
	"mercator-hq/callisto/pkg/adapters"
)

func TestGenerateCompletion(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/models/gemini-pro:generateContent", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockGenerateResponse("Hello, world!", "STOP"),
	})

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	resp, err := adapter.GenerateCompletion(context.Background(), "Hello", adapters.Params{})
	testhelpers.AssertNoError(t, err)

	testhelpers.AssertEqual(t, resp.Text, "Hello, world!")
	testhelpers.AssertEqual(t, resp.Provider, adapters.ProviderGemini)
	testhelpers.AssertEqual(t, resp.Model, DefaultModel)

	// Vendor usage metadata is authoritative.
	testhelpers.AssertEqual(t, resp.Usage.PromptTokens, 10)
	testhelpers.AssertEqual(t, resp.Usage.CompletionTokens, 20)
	testhelpers.AssertEqual(t, resp.Usage.TotalTokens, 30)
}

func TestGenerateCompletion_ResourcePathModel(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	// A model already carrying a resource path is used as-is in the URL.
	mock.SetResponse("/tunedModels/my-model:generateContent", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockGenerateResponse("tuned", "STOP"),
	})

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	resp, err := adapter.GenerateCompletion(context.Background(), "Hello",
		adapters.Params{Model: "tunedModels/my-model"})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, resp.Text, "tuned")
}

func TestGenerateCompletion_SendsKeyAsQueryParam(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	adapter, err := New(testhelpers.TestConfig(server.URL))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	_, err = adapter.GenerateCompletion(context.Background(), "Hello", adapters.Params{})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, gotKey, "test-key")
}

func TestGenerateCompletion_BodyError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	// This vendor can return errors inside a 200 body.
	mock.SetResponse("/models/gemini-pro:generateContent", testhelpers.MockResponse{
		StatusCode: 200,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"code":    400,
				"message": "request payload malformed",
				"status":  "INVALID_ARGUMENT",
			},
		},
	})

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	_, err = adapter.GenerateCompletion(context.Background(), "Hello", adapters.Params{})
	testhelpers.AssertErrorKind(t, err, adapters.KindInvalidRequest)
}

func TestGenerateCompletion_RetriesServerErrors(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponseSequence("/models/gemini-pro:generateContent",
		testhelpers.MockServerError(),
		testhelpers.MockResponse{
			StatusCode: 200,
			Body:       testhelpers.MockGenerateResponse("recovered", "STOP"),
		},
	)

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	resp, err := adapter.GenerateCompletion(context.Background(), "Hello", adapters.Params{})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, resp.Text, "recovered")
	testhelpers.AssertEqual(t, mock.RequestCount(), 2)
}

func TestStreamCompletion(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	// This vendor ends streams with a finish-reason frame, not a sentinel.
	mock.SetResponse("/models/gemini-pro:streamGenerateContent", testhelpers.MockResponse{
		StatusCode: 200,
		StreamChunks: []string{
			testhelpers.MockGenerateChunk("Hello", ""),
			testhelpers.MockGenerateChunk(", world", ""),
			testhelpers.MockGenerateChunk("!", "STOP"),
		},
		OmitDone: true,
	})

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	chunks, err := adapter.StreamCompletion(context.Background(), "Hello", adapters.Params{})
	testhelpers.AssertNoError(t, err)

	deltas, terminal := testhelpers.DrainStream(t, chunks)

	testhelpers.AssertEqual(t, testhelpers.ConcatDeltas(deltas), "Hello, world!")
	if terminal == nil {
		t.Fatal("expected a terminal chunk")
	}
	testhelpers.AssertNoError(t, terminal.Err)
	testhelpers.AssertEqual(t, terminal.FinishReason, "STOP")

	// The terminal frame carried vendor usage metadata.
	testhelpers.AssertEqual(t, terminal.Usage.PromptTokens, 10)
	testhelpers.AssertEqual(t, terminal.Usage.CompletionTokens, 20)
	testhelpers.AssertEqual(t, terminal.Usage.TotalTokens, 30)
}

func TestStreamCompletion_TruncatedStream(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/models/gemini-pro:streamGenerateContent", testhelpers.MockResponse{
		StatusCode: 200,
		StreamChunks: []string{
			testhelpers.MockGenerateChunk("partial", ""),
		},
		OmitDone: true,
	})

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	chunks, err := adapter.StreamCompletion(context.Background(), "Hello", adapters.Params{})
	testhelpers.AssertNoError(t, err)

	deltas, terminal := testhelpers.DrainStream(t, chunks)
	testhelpers.AssertEqual(t, testhelpers.ConcatDeltas(deltas), "partial")
	if terminal == nil {
		t.Fatal("expected a terminal chunk for the truncated stream")
	}
	testhelpers.AssertNoError(t, terminal.Err)
}

func TestGetAvailableModels_Memoized(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/models", testhelpers.MockResponse{
		StatusCode: 200,
		Body: map[string]interface{}{
			"models": []map[string]interface{}{
				{"name": "models/gemini-pro"},
				{"name": "models/gemini-1.5-flash"},
			},
		},
	})

	adapter, err := New(testhelpers.TestConfig(mock.URL()))
	testhelpers.AssertNoError(t, err)
	defer adapter.Close()

	models, err := adapter.GetAvailableModels(context.Background())
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, len(models), 2)
	testhelpers.AssertEqual(t, models[0], "models/gemini-pro")

	_, err = adapter.GetAvailableModels(context.Background())
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, mock.RequestCount(), 1)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(adapters.Config{})
	testhelpers.AssertErrorKind(t, err, adapters.KindAuthentication)
}
