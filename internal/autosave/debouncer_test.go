package autosave

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedContent struct {
	noteID string
	blocks []models.Block
}

type recordingSaver struct {
	lock  sync.Mutex
	saves []savedContent
	err   error
}

func (r *recordingSaver) SaveContent(ctx context.Context, id string, blocks []models.Block) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.saves = append(r.saves, savedContent{noteID: id, blocks: blocks})
	return r.err
}

func (r *recordingSaver) saved() []savedContent {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]savedContent{}, r.saves...)
}

func paragraph(text string) []models.Block {
	return []models.Block{{"type": "paragraph", "content": text}}
}

const testDelay = 50 * time.Millisecond

func TestScheduleCoalesces(t *testing.T) {
	saver := &recordingSaver{}
	d, err := NewDebouncer(saver, "n1", WithDelay(testDelay))
	require.NoError(t, err)

	d.Schedule(paragraph("h"))
	d.Schedule(paragraph("he"))
	d.Schedule(paragraph("hello"))

	require.Eventually(t, func() bool { return len(saver.saved()) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(2 * testDelay)
	saves := saver.saved()
	require.Len(t, saves, 1)
	assert.Equal(t, "n1", saves[0].noteID)
	assert.Equal(t, paragraph("hello"), saves[0].blocks)
}

func TestScheduleRestartsTheTimer(t *testing.T) {
	saver := &recordingSaver{}
	d, err := NewDebouncer(saver, "n1", WithDelay(4*testDelay))
	require.NoError(t, err)

	d.Schedule(paragraph("a"))
	time.Sleep(2 * testDelay)
	d.Schedule(paragraph("ab"))
	time.Sleep(3 * testDelay)

	assert.Empty(t, saver.saved())
	require.Eventually(t, func() bool { return len(saver.saved()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestSwitchNoteDropsThePendingSave(t *testing.T) {
	saver := &recordingSaver{}
	d, err := NewDebouncer(saver, "n1", WithDelay(testDelay))
	require.NoError(t, err)

	d.Schedule(paragraph("for n1"))
	d.SwitchNote("n2")
	d.Schedule(paragraph("for n2"))

	require.Eventually(t, func() bool { return len(saver.saved()) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(2 * testDelay)
	saves := saver.saved()
	require.Len(t, saves, 1)
	assert.Equal(t, "n2", saves[0].noteID)
	assert.Equal(t, "n2", d.NoteID())
}

func TestFlush(t *testing.T) {
	saver := &recordingSaver{}
	d, err := NewDebouncer(saver, "n1", WithDelay(time.Hour))
	require.NoError(t, err)

	require.NoError(t, d.Flush(context.Background()))
	assert.Empty(t, saver.saved())

	d.Schedule(paragraph("now"))
	require.NoError(t, d.Flush(context.Background()))
	assert.Len(t, saver.saved(), 1)

	require.NoError(t, d.Flush(context.Background()))
	assert.Len(t, saver.saved(), 1)
}

func TestFlushReturnsTheSaveError(t *testing.T) {
	saver := &recordingSaver{err: fmt.Errorf("backend down")}
	var callbackErr error
	d, err := NewDebouncer(saver, "n1", WithSavedCallback(func(noteID string, err error) { callbackErr = err }))
	require.NoError(t, err)

	d.Schedule(paragraph("x"))
	err = d.Flush(context.Background())

	assert.ErrorContains(t, err, "backend down")
	assert.ErrorContains(t, callbackErr, "backend down")
}

func TestStop(t *testing.T) {
	saver := &recordingSaver{}
	d, err := NewDebouncer(saver, "n1", WithDelay(testDelay))
	require.NoError(t, err)

	d.Schedule(paragraph("dropped"))
	d.Stop()
	d.Schedule(paragraph("ignored"))
	time.Sleep(3 * testDelay)

	assert.Empty(t, saver.saved())
}

func TestNoNoteNothingIsScheduled(t *testing.T) {
	saver := &recordingSaver{}
	d, err := NewDebouncer(saver, "", WithDelay(testDelay))
	require.NoError(t, err)

	d.Schedule(paragraph("x"))
	time.Sleep(3 * testDelay)

	assert.Empty(t, saver.saved())
}

func TestNewDebouncerValidation(t *testing.T) {
	_, err := NewDebouncer(nil, "n1")
	assert.Error(t, err)
	_, err = NewDebouncer(&recordingSaver{}, "n1", WithDelay(0))
	assert.Error(t, err)
}
