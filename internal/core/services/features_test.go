package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cucumber/godog"
	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/custodia-labs/documind/internal/adapters/driven/redis"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

// world is the state of one scenario.
type world struct {
	f      *fixture
	redis  *miniredis.Miniredis
	client *goredis.Client

	data      []byte
	uploadErr []error
	retrieved []*domain.RankedChunk
	fragments []domain.Fragment
	docs      int
}

func (w *world) setup() error {
	mr, err := miniredis.Run()
	if err != nil {
		return err
	}
	rag := domain.DefaultRAGConfig()

	w.f = buildFixture()
	w.redis = mr
	w.client = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	w.f.useSessionStore(redisadapter.NewSessionContextStore(w.client, rag.MaxContextMessages, rag.SessionTTL))
	return nil
}

func (w *world) teardown() {
	_ = w.client.Close()
	w.redis.Close()
	_ = w.f.services.Close()
}

func (w *world) aFileContaining(_, content string) error {
	w.data = []byte(content)
	return nil
}

func (w *world) iUploadItTo(session string) error {
	return w.upload("report.pdf", session)
}

func (w *world) iUploadTheSameBytesAs(filename, session string) error {
	return w.upload(filename, session)
}

func (w *world) upload(filename, session string) error {
	_, err := w.f.ingestion.Submit(context.Background(), driving.SubmitRequest{
		SessionID: session, Filename: filename, Data: w.data,
	})
	w.uploadErr = append(w.uploadErr, err)
	return nil
}

func (w *world) theFirstUploadIsAccepted() error {
	if len(w.uploadErr) == 0 || w.uploadErr[0] != nil {
		return fmt.Errorf("expected first upload to succeed, got %v", w.uploadErr)
	}
	return nil
}

func (w *world) theSecondUploadIsRejected() error {
	if len(w.uploadErr) < 2 || !errors.Is(w.uploadErr[1], domain.ErrDuplicateDocument) {
		return fmt.Errorf("expected duplicate rejection, got %v", w.uploadErr)
	}
	if n := w.f.scheduler.Count(); n != 1 {
		return fmt.Errorf("expected 1 scheduled job, got %d", n)
	}
	return nil
}

func (w *world) sessionHasIndexed(session, text string) error {
	w.docs++
	job := domain.NewIngestionJob(fmt.Sprintf("doc-%d", w.docs), session, "doc.pdf", "")
	_, err := w.f.ingestor.Ingest(context.Background(), job, []byte(text))
	return err
}

func (w *world) iRetrieveIn(query, session string) error {
	results, err := w.f.retriever.Retrieve(context.Background(), query, session, 10)
	w.retrieved = results
	return err
}

func (w *world) everyChunkBelongsTo(session string) error {
	if len(w.retrieved) == 0 {
		return errors.New("expected at least one chunk")
	}
	for _, rc := range w.retrieved {
		if rc.Chunk.SessionID != session {
			return fmt.Errorf("chunk %s belongs to %s", rc.Chunk.ID, rc.Chunk.SessionID)
		}
	}
	return nil
}

func (w *world) providerStreamsThenFails(first, second string) error {
	w.f.llm.Fragments = []string{first, second}
	w.f.llm.FailWith = errors.New("upstream reset")
	return nil
}

func (w *world) userAsks(user, query, session string) error {
	stream, err := w.f.chat.Chat(context.Background(), driving.ChatRequest{
		UserID: user, SessionID: session, Query: query,
	})
	if err != nil {
		return err
	}
	w.fragments = drain(stream)
	_ = stream.Wait()
	return nil
}

func (w *world) readerReceivesFragmentsAndMarker(n int) error {
	if len(w.fragments) != n+1 {
		return fmt.Errorf("expected %d fragments, got %q", n+1, texts(w.fragments))
	}
	for _, f := range w.fragments[:n] {
		if f.IsError {
			return fmt.Errorf("unexpected marker %q", f.Text)
		}
	}
	if !w.fragments[n].IsError || !strings.HasPrefix(w.fragments[n].Text, domain.ErrorMarkerPrefix) {
		return fmt.Errorf("expected error marker, got %q", w.fragments[n].Text)
	}
	return nil
}

func (w *world) noAssistantTurn(session string) error {
	for _, m := range w.f.messages.Messages(session) {
		if m.Role == domain.RoleAssistant {
			return fmt.Errorf("unexpected assistant turn %q", m.Content)
		}
	}
	for _, t := range w.f.sessionContext.Window(context.Background(), session) {
		if t.Role == domain.RoleAssistant {
			return fmt.Errorf("unexpected assistant turn in window %q", t.Content)
		}
	}
	return nil
}

func (w *world) userTurnRecorded(content, session string) error {
	for _, t := range w.f.sessionContext.Window(context.Background(), session) {
		if t.Role == domain.RoleUser && t.Content == content {
			return nil
		}
	}
	return fmt.Errorf("user turn %q missing from window", content)
}

func (w *world) sessionHasPriorTurns(session string, n int) error {
	for i := 0; i < n; i++ {
		w.f.sessionContext.Append(context.Background(), "u1", session, domain.RoleUser, fmt.Sprintf("turn %d", i))
	}
	return nil
}

func (w *world) windowHoldsLast(session string, n int) error {
	window := w.f.sessionContext.Window(context.Background(), session)
	if len(window) != n {
		return fmt.Errorf("expected %d turns, got %d", n, len(window))
	}
	history := w.f.messages.Messages(session)
	offset := len(history) - n
	for i, t := range window {
		if t.Content != history[offset+i].Content {
			return fmt.Errorf("window turn %d is %q, history has %q", i, t.Content, history[offset+i].Content)
		}
	}
	return nil
}

func (w *world) windowHolds(session string, n int) error {
	if got := len(w.f.sessionContext.Window(context.Background(), session)); got != n {
		return fmt.Errorf("expected %d turns, got %d", n, got)
	}
	return nil
}

func (w *world) theWindowExpires() error {
	w.redis.FastForward(domain.DefaultRAGConfig().SessionTTL + time.Second)
	return nil
}

func (w *world) userAddsTurn(user, content, session string) error {
	w.f.sessionContext.Append(context.Background(), user, session, domain.RoleUser, content)
	return nil
}

func (w *world) promptSays(text string) error {
	prompts := w.f.llm.Prompts()
	if len(prompts) == 0 {
		return errors.New("no prompt was sent")
	}
	if !strings.Contains(prompts[len(prompts)-1], text) {
		return fmt.Errorf("prompt does not contain %q", text)
	}
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &world{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, w.setup()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		w.teardown()
		return ctx, nil
	})

	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, w.aFileContaining)
	sc.Step(`^I upload it to session "([^"]*)"$`, w.iUploadItTo)
	sc.Step(`^I upload the same bytes as "([^"]*)" to session "([^"]*)"$`, w.iUploadTheSameBytesAs)
	sc.Step(`^the first upload is accepted$`, w.theFirstUploadIsAccepted)
	sc.Step(`^the second upload is rejected as a duplicate$`, w.theSecondUploadIsRejected)
	sc.Step(`^session "([^"]*)" has indexed "([^"]*)"$`, w.sessionHasIndexed)
	sc.Step(`^I retrieve "([^"]*)" in session "([^"]*)"$`, w.iRetrieveIn)
	sc.Step(`^every retrieved chunk belongs to session "([^"]*)"$`, w.everyChunkBelongsTo)
	sc.Step(`^the provider streams "([^"]*)" and "([^"]*)" and then fails$`, w.providerStreamsThenFails)
	sc.Step(`^user "([^"]*)" asks "([^"]*)" in session "([^"]*)"$`, w.userAsks)
	sc.Step(`^the reader receives (\d+) fragments followed by an error marker$`, w.readerReceivesFragmentsAndMarker)
	sc.Step(`^session "([^"]*)" has no assistant turn$`, w.noAssistantTurn)
	sc.Step(`^the user turn "([^"]*)" is recorded in session "([^"]*)"$`, w.userTurnRecorded)
	sc.Step(`^session "([^"]*)" has (\d+) prior turns$`, w.sessionHasPriorTurns)
	sc.Step(`^the window of session "([^"]*)" holds the last (\d+) turns$`, w.windowHoldsLast)
	sc.Step(`^the window of session "([^"]*)" holds (\d+) turn$`, w.windowHolds)
	sc.Step(`^the session window expires$`, w.theWindowExpires)
	sc.Step(`^user "([^"]*)" adds the turn "([^"]*)" to session "([^"]*)"$`, w.userAddsTurn)
	sc.Step(`^the prompt says "([^"]*)"$`, w.promptSays)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "documind",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}
