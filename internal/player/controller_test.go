package player

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hazadus/artistmusic/internal/data"
)

// MockBackend - тестовая реализация Backend
type MockBackend struct {
	mutex    sync.Mutex
	loaded   []string
	onEnd    func()
	playing  bool
	position time.Duration
	duration time.Duration
	volume   float64
	failOn   map[string]bool
	stopped  int
}

func newMockBackend() *MockBackend {
	return &MockBackend{duration: 3 * time.Minute, failOn: map[string]bool{}}
}

func (m *MockBackend) Load(path string, onEnd func()) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.failOn[path] {
		return errors.New("decode failed")
	}
	m.loaded = append(m.loaded, path)
	m.onEnd = onEnd
	m.playing = false
	m.position = 0
	return nil
}

func (m *MockBackend) Play() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.playing = true
}

func (m *MockBackend) Pause() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.playing = false
}

func (m *MockBackend) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.playing = false
	m.stopped++
}

func (m *MockBackend) Seek(position time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.position = position
	return nil
}

func (m *MockBackend) Position() time.Duration {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.position
}

func (m *MockBackend) Duration() time.Duration {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.duration
}

func (m *MockBackend) SetVolume(volume float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.volume = volume
}

func (m *MockBackend) Close() error { return nil }

// finish имитирует окончание источника
func (m *MockBackend) finish() {
	m.mutex.Lock()
	onEnd := m.onEnd
	m.mutex.Unlock()
	onEnd()
}

func (m *MockBackend) lastLoaded() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.loaded) == 0 {
		return ""
	}
	return m.loaded[len(m.loaded)-1]
}

// createSongs создает песни с реальными файлами
func createSongs(t *testing.T, titles ...string) []data.Song {
	t.Helper()
	dir := t.TempDir()
	songs := make([]data.Song, 0, len(titles))
	for _, title := range titles {
		path := filepath.Join(dir, title+".mp3")
		if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
			t.Fatalf("Не удалось создать файл: %v", err)
		}
		songs = append(songs, data.Song{ID: uuid.New(), Title: title, AudioPath: data.AudioSource(path)})
	}
	return songs
}

func newTestController(backend Backend) *Controller {
	return NewController(backend, time.Hour, nil)
}

func currentTitle(c *Controller) string {
	status := c.Status()
	if status.Song == nil {
		return ""
	}
	return status.Song.Title
}

func TestSetQueueAndPlayNextWraps(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2", "s3")
	if err := c.SetQueue(songs); err != nil {
		t.Fatalf("SetQueue вернул ошибку: %v", err)
	}
	if got := currentTitle(c); got != "s1" {
		t.Fatalf("Ожидалась песня s1, получена %q", got)
	}
	if !c.Status().IsPlaying() {
		t.Error("Ожидалось состояние воспроизведения")
	}

	expected := []string{"s2", "s3", "s1"}
	for _, title := range expected {
		if err := c.PlayNext(); err != nil {
			t.Fatalf("PlayNext вернул ошибку: %v", err)
		}
		if got := currentTitle(c); got != title {
			t.Errorf("Ожидалась песня %s, получена %q", title, got)
		}
	}
}

func TestSkipBackwardAtStartResetsPosition(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	if err := c.SetQueue(songs); err != nil {
		t.Fatalf("SetQueue вернул ошибку: %v", err)
	}
	if err := c.Seek(42 * time.Second); err != nil {
		t.Fatalf("Seek вернул ошибку: %v", err)
	}

	if err := c.SkipBackward(); err != nil {
		t.Fatalf("SkipBackward вернул ошибку: %v", err)
	}

	status := c.Status()
	if status.Song == nil || status.Song.ID != songs[0].ID {
		t.Error("Текущая песня не должна меняться")
	}
	if status.Current != 0 {
		t.Errorf("Ожидалась позиция 0, получена %v", status.Current)
	}
	if backend.Position() != 0 {
		t.Errorf("Backend должен быть перемотан в начало, позиция %v", backend.Position())
	}
}

func TestSkipForwardStopsAtEnd(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	_ = c.SetQueue(songs)

	_ = c.SkipForward()
	if got := currentTitle(c); got != "s2" {
		t.Fatalf("Ожидалась песня s2, получена %q", got)
	}
	_ = c.SkipForward()
	if got := currentTitle(c); got != "s2" {
		t.Errorf("На последней песне переход вперед не должен ничего менять, получена %q", got)
	}
}

func TestRepeatAllWrapsManualSkip(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	_ = c.SetQueue(songs)
	c.SetMode(data.ModeRepeatAll)

	_ = c.SkipBackward()
	if got := currentTitle(c); got != "s2" {
		t.Errorf("Ожидался переход к последней песне, получена %q", got)
	}
	_ = c.SkipForward()
	if got := currentTitle(c); got != "s1" {
		t.Errorf("Ожидался переход к первой песне, получена %q", got)
	}
}

func TestRepeatOneReplaysCurrentSong(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	_ = c.SetQueue(songs)
	c.SetMode(data.ModeRepeatOne)

	backend.finish()

	if got := currentTitle(c); got != "s1" {
		t.Errorf("Ожидался повтор s1, получена %q", got)
	}
	backend.mutex.Lock()
	loads := len(backend.loaded)
	backend.mutex.Unlock()
	if loads != 2 {
		t.Errorf("Ожидалось 2 загрузки, получено %d", loads)
	}
}

func TestNaturalEndAdvances(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	_ = c.SetQueue(songs)

	backend.finish()
	if got := currentTitle(c); got != "s2" {
		t.Fatalf("Ожидалась песня s2, получена %q", got)
	}
	backend.finish()
	if got := currentTitle(c); got != "s1" {
		t.Errorf("После последней песни ожидалась s1, получена %q", got)
	}
}

func TestStaleEndCallbackIgnored(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2", "s3")
	_ = c.SetQueue(songs)

	backend.mutex.Lock()
	staleEnd := backend.onEnd
	backend.mutex.Unlock()

	_ = c.SkipForward()
	staleEnd()

	if got := currentTitle(c); got != "s2" {
		t.Errorf("Устаревший колбэк не должен переключать песню, получена %q", got)
	}
}

func TestShufflePutsCurrentSongFirst(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2", "s3", "s4", "s5")
	_ = c.SetQueue(songs)
	_ = c.SkipForward()
	_ = c.SkipForward()

	c.SetMode(data.ModeShuffle)

	status := c.Status()
	if status.Song == nil || status.Song.Title != "s3" {
		t.Fatal("Смена режима не должна менять текущую песню")
	}
	c.mutex.Lock()
	first, pos := c.order[0], c.pos
	c.mutex.Unlock()
	if first != 2 || pos != 0 {
		t.Errorf("Текущая песня должна быть первой в порядке обхода, order[0]=%d pos=%d", first, pos)
	}

	// Все песни обходятся ровно один раз
	seen := map[string]bool{"s3": true}
	for range 4 {
		_ = c.PlayNext()
		seen[currentTitle(c)] = true
	}
	if len(seen) != 5 {
		t.Errorf("Ожидался обход всех 5 песен, получено %d", len(seen))
	}
}

func TestSeekClamps(t *testing.T) {
	backend := newMockBackend()
	backend.duration = time.Minute
	c := newTestController(backend)
	defer c.Close()

	_ = c.SetQueue(createSongs(t, "s1"))

	if err := c.Seek(-5 * time.Second); err != nil {
		t.Fatalf("Seek вернул ошибку: %v", err)
	}
	if got := c.Status().Current; got != 0 {
		t.Errorf("Ожидалась позиция 0, получена %v", got)
	}

	_ = c.Seek(2 * time.Minute)
	if got := c.Status().Current; got != time.Minute {
		t.Errorf("Ожидалась позиция %v, получена %v", time.Minute, got)
	}

	_ = c.Seek(30 * time.Second)
	_ = c.SeekBy(-10 * time.Second)
	if got := c.Status().Current; got != 20*time.Second {
		t.Errorf("Ожидалась позиция 20s, получена %v", got)
	}
}

func TestSeekWithoutSource(t *testing.T) {
	c := newTestController(newMockBackend())
	defer c.Close()

	if err := c.Seek(time.Second); !errors.Is(err, ErrNoSource) {
		t.Errorf("Ожидалась ErrNoSource, получена %v", err)
	}
}

func TestPauseResume(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	// Без источника Resume ничего не делает
	c.Resume()
	if c.Status().State != data.StateStopped {
		t.Error("Без источника плеер должен оставаться остановленным")
	}

	_ = c.SetQueue(createSongs(t, "s1"))
	c.Pause()
	if c.Status().State != data.StatePaused {
		t.Errorf("Ожидалось состояние paused, получено %s", c.Status().State)
	}
	c.TogglePause()
	if !c.Status().IsPlaying() {
		t.Error("Ожидалось возобновление воспроизведения")
	}
	c.Stop()
	status := c.Status()
	if status.State != data.StateStopped || status.Song == nil {
		t.Error("После остановки песня должна оставаться выбранной")
	}
}

func TestInvalidSourceKeepsState(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	_ = c.SetQueue(songs)

	missing := data.Song{ID: uuid.New(), Title: "missing", AudioPath: data.AudioSource(filepath.Join(t.TempDir(), "missing.mp3"))}
	if err := c.PlaySong(missing); !errors.Is(err, ErrNoSource) {
		t.Fatalf("Ожидалась ErrNoSource, получена %v", err)
	}
	status := c.Status()
	if status.Song == nil || status.Song.Title != "s1" || !status.IsPlaying() {
		t.Error("Ошибка воспроизведения не должна менять текущую песню")
	}
	if status.QueueLen != 2 {
		t.Errorf("Очередь не должна меняться, длина %d", status.QueueLen)
	}

	// Ошибка декодирования тоже не меняет состояние
	backend.failOn[string(songs[1].AudioPath)] = true
	if err := c.SkipForward(); err == nil {
		t.Fatal("Ожидалась ошибка загрузки")
	}
	if got := currentTitle(c); got != "s1" {
		t.Errorf("Ожидалась песня s1, получена %q", got)
	}
	if backend.lastLoaded() != string(songs[0].AudioPath) {
		t.Error("Backend должен сохранить прежний источник")
	}
}

func TestPlaySongFailureKeepsQueue(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2")
	_ = c.SetQueue(songs)

	moved := songs[1]
	moved.AudioPath = data.AudioSource(filepath.Join(t.TempDir(), "moved.mp3"))
	if err := c.PlaySong(moved); !errors.Is(err, ErrNoSource) {
		t.Fatalf("Ожидалась ErrNoSource, получена %v", err)
	}

	queue := c.Queue()
	if len(queue) != 2 || queue[1].AudioPath != songs[1].AudioPath {
		t.Fatalf("Очередь изменилась после ошибки: %+v", queue)
	}
	if err := c.SkipForward(); err != nil {
		t.Fatalf("Переход к s2 должен работать: %v", err)
	}
	if got := currentTitle(c); got != "s2" {
		t.Errorf("Ожидалась песня s2, получена %q", got)
	}
}

func TestForgetCurrentSong(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2", "s3")
	_ = c.SetQueue(songs)
	_ = c.SkipForward()

	c.Forget([]uuid.UUID{songs[1].ID})

	status := c.Status()
	if status.Song != nil {
		t.Error("Текущая песня должна быть сброшена")
	}
	if status.State != data.StateStopped {
		t.Errorf("Ожидалось состояние stopped, получено %s", status.State)
	}
	if status.QueueLen != 2 {
		t.Errorf("Ожидалась очередь из 2 песен, получено %d", status.QueueLen)
	}

	_ = c.PlayNext()
	if got := currentTitle(c); got != "s1" {
		t.Errorf("Ожидалась песня s1, получена %q", got)
	}
}

func TestForgetOtherSongKeepsPosition(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2", "s3")
	_ = c.SetQueue(songs)
	_ = c.SkipForward()

	c.Forget([]uuid.UUID{songs[0].ID})

	status := c.Status()
	if status.Song == nil || status.Song.Title != "s2" || !status.IsPlaying() {
		t.Fatal("Удаление другой песни не должно прерывать воспроизведение")
	}
	if status.Index != 0 {
		t.Errorf("Ожидался индекс 0, получен %d", status.Index)
	}
	_ = c.SkipForward()
	if got := currentTitle(c); got != "s3" {
		t.Errorf("Ожидалась песня s3, получена %q", got)
	}
}

func TestDurationReported(t *testing.T) {
	backend := newMockBackend()
	backend.duration = 95 * time.Second
	c := NewController(backend, 5*time.Millisecond, nil)
	defer c.Close()

	reported := make(chan float64, 1)
	c.OnDuration(func(id uuid.UUID, seconds float64) {
		select {
		case reported <- seconds:
		default:
		}
	})

	_ = c.SetQueue(createSongs(t, "s1"))

	select {
	case seconds := <-reported:
		if seconds != 95 {
			t.Errorf("Ожидалась длительность 95, получено %v", seconds)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Длительность не была передана")
	}
}

func TestUpdatesKeepsLatestStatus(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)

	_ = c.SetQueue(createSongs(t, "s1", "s2"))
	_ = c.SkipForward()

	status := <-c.Updates()
	if status.Song == nil || status.Song.Title != "s2" {
		t.Error("Канал должен содержать последний статус")
	}

	c.SetVolume(1.5)
	if got := c.Status().Volume; got != 1 {
		t.Errorf("Громкость должна ограничиваться 1, получено %v", got)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close вернул ошибку: %v", err)
	}
	// Закрытие повторно безопасно
	_ = c.Close()
	for range c.Updates() {
	}
}

func TestSetQueueAtStartsFromIndex(t *testing.T) {
	backend := newMockBackend()
	c := newTestController(backend)
	defer c.Close()

	songs := createSongs(t, "s1", "s2", "s3")
	if err := c.SetQueueAt(songs, 2); err != nil {
		t.Fatalf("SetQueueAt вернул ошибку: %v", err)
	}
	if got := currentTitle(c); got != "s3" {
		t.Errorf("Ожидалась песня s3, получена %q", got)
	}
	if err := c.SetQueueAt(songs, 5); err == nil {
		t.Error("Ожидалась ошибка для индекса вне очереди")
	}
	if got := currentTitle(c); got != "s3" {
		t.Errorf("Ошибка не должна менять текущую песню, получена %q", got)
	}
}
