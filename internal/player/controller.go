package player

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hazadus/artistmusic/internal/data"
	"github.com/hazadus/artistmusic/internal/logging"
)

// DefaultProgressInterval - период обновления позиции воспроизведения
const DefaultProgressInterval = 250 * time.Millisecond

// Status представляет текущий статус плеера
type Status struct {
	Song     *data.Song         // Текущая песня или nil
	State    data.PlaybackState // Состояние воспроизведения
	Current  time.Duration      // Текущая позиция
	Total    time.Duration      // Общая продолжительность, 0 пока неизвестна
	Index    int                // Позиция песни в очереди или -1
	QueueLen int
	Mode     data.PlaybackMode
	Volume   float64
}

// IsPlaying сообщает, воспроизводится ли песня
func (s Status) IsPlaying() bool {
	return s.State == data.StatePlaying
}

// Controller управляет очередью песен поверх Backend.
// Ручное переключение останавливается на границах очереди (в режиме повтора всей очереди переходит по кругу),
// переход по окончании песни всегда идет по кругу.
type Controller struct {
	mutex   sync.Mutex
	backend Backend
	logger  *zap.Logger

	interval time.Duration
	rng      *rand.Rand

	queue   []data.Song
	order   []int // Порядок обхода очереди: индексы queue
	pos     int   // Позиция в order или -1
	current *data.Song
	bound   bool // Источник загружен в backend

	state       data.PlaybackState
	currentTime time.Duration
	duration    time.Duration
	volume      float64
	mode        data.PlaybackMode

	// generation увеличивается при каждой смене источника, чтобы игнорировать устаревшие колбэки
	generation       uint64
	stopObserver     context.CancelFunc
	durationReported bool
	onDuration       func(id uuid.UUID, seconds float64)

	statusChan chan Status
	closed     bool
}

// NewController создает контроллер очереди
func NewController(backend Backend, interval time.Duration, logger *zap.Logger) *Controller {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Controller{
		backend:    backend,
		logger:     logging.OrNop(logger),
		interval:   interval,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		pos:        -1,
		volume:     1,
		statusChan: make(chan Status, 1),
	}
}

// Updates возвращает канал с последним статусом. Промежуточные статусы могут пропускаться.
func (c *Controller) Updates() <-chan Status {
	return c.statusChan
}

// OnDuration регистрирует обработчик, который получает реальную длительность песни,
// если в записи она еще не была известна
func (c *Controller) OnDuration(fn func(id uuid.UUID, seconds float64)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onDuration = fn
}

// Status возвращает текущий статус
func (c *Controller) Status() Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.statusLocked()
}

// Queue возвращает копию очереди
func (c *Controller) Queue() []data.Song {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return slices.Clone(c.queue)
}

// SetQueue заменяет очередь и начинает воспроизведение первой песни.
// При ошибке воспроизведения прежние очередь и состояние сохраняются.
func (c *Controller) SetQueue(songs []data.Song) error {
	return c.SetQueueAt(songs, 0)
}

// SetQueueAt заменяет очередь и начинает воспроизведение песни с индексом start
func (c *Controller) SetQueueAt(songs []data.Song, start int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(songs) == 0 {
		c.stopLocked()
		c.queue, c.order, c.pos = nil, nil, -1
		c.current = nil
		c.publishLocked()
		return nil
	}
	if start < 0 || start >= len(songs) {
		return fmt.Errorf("индекс %d вне очереди из %d песен", start, len(songs))
	}

	snapshot := c.snapshotLocked()
	c.queue = slices.Clone(songs)
	c.order = c.buildOrder(start)
	if err := c.playAtLocked(slices.Index(c.order, start)); err != nil {
		c.restoreLocked(snapshot)
		return err
	}
	return nil
}

// PlaySong воспроизводит песню. Если песни нет в очереди, очередь заменяется этой песней.
func (c *Controller) PlaySong(song data.Song) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	snapshot := c.snapshotLocked()
	index := slices.IndexFunc(c.queue, func(s data.Song) bool { return s.ID == song.ID })
	if index < 0 {
		c.queue = []data.Song{song}
		c.order = []int{0}
		index = 0
	} else {
		c.queue[index] = song
	}

	if err := c.playAtLocked(slices.Index(c.order, index)); err != nil {
		c.restoreLocked(snapshot)
		return err
	}
	return nil
}

// Pause приостанавливает воспроизведение без потери позиции
func (c *Controller) Pause() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != data.StatePlaying {
		return
	}
	c.backend.Pause()
	c.state = data.StatePaused
	c.publishLocked()
}

// Resume возобновляет воспроизведение. Без загруженного источника ничего не делает.
func (c *Controller) Resume() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.bound || c.state == data.StatePlaying {
		return
	}
	c.backend.Play()
	c.state = data.StatePlaying
	c.publishLocked()
}

// TogglePause переключает паузу
func (c *Controller) TogglePause() {
	if c.Status().State == data.StatePlaying {
		c.Pause()
		return
	}
	c.Resume()
}

// Stop останавливает воспроизведение. Текущая песня остается выбранной.
func (c *Controller) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.stopLocked()
	c.publishLocked()
}

// Seek перемещает позицию в пределах [0, длительность]
func (c *Controller) Seek(position time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.seekLocked(position)
}

// SeekBy сдвигает позицию на delta
func (c *Controller) SeekBy(delta time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.seekLocked(c.currentTime + delta)
}

func (c *Controller) seekLocked(position time.Duration) error {
	if !c.bound {
		return ErrNoSource
	}
	if position < 0 {
		position = 0
	}
	if c.duration > 0 && position > c.duration {
		position = c.duration
	}
	if err := c.backend.Seek(position); err != nil {
		c.logger.Error("Ошибка перемотки", zap.Duration("position", position), zap.Error(err))
		return err
	}
	// Позиция обновляется сразу, не дожидаясь наблюдателя
	c.currentTime = position
	c.publishLocked()
	return nil
}

// SkipForward переходит к следующей песне. На последней песне ничего не делает,
// если не включен повтор всей очереди.
func (c *Controller) SkipForward() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := len(c.order)
	if n == 0 {
		return nil
	}
	next := c.pos + 1
	if next >= n {
		if c.mode != data.ModeRepeatAll {
			return nil
		}
		next = 0
	}
	return c.playAtLocked(next)
}

// SkipBackward переходит к предыдущей песне. На первой песне перематывает ее в начало,
// если не включен повтор всей очереди.
func (c *Controller) SkipBackward() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := len(c.order)
	if n == 0 {
		return nil
	}
	if c.pos <= 0 {
		if c.mode == data.ModeRepeatAll && n > 1 {
			return c.playAtLocked(n - 1)
		}
		if c.bound {
			return c.seekLocked(0)
		}
		return c.playAtLocked(0)
	}
	return c.playAtLocked(c.pos - 1)
}

// PlayNext переходит к следующей песне так, как при естественном окончании: по кругу,
// а в режиме повтора одной песни повторяет текущую
func (c *Controller) PlayNext() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.playNextLocked()
}

func (c *Controller) playNextLocked() error {
	n := len(c.order)
	if n == 0 {
		return nil
	}
	if c.mode == data.ModeRepeatOne && c.pos >= 0 {
		return c.playAtLocked(c.pos)
	}
	return c.playAtLocked((c.pos + 1) % n)
}

// handleEnd вызывается backend, когда песня доиграла до конца
func (c *Controller) handleEnd(generation uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.generation || c.closed {
		return
	}
	if err := c.playNextLocked(); err != nil {
		c.logger.Error("Ошибка перехода к следующей песне", zap.Error(err))
		c.stopLocked()
		c.publishLocked()
	}
}

// SetMode меняет режим обхода очереди. В режиме перемешивания текущая песня становится первой.
func (c *Controller) SetMode(mode data.PlaybackMode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	currentIndex := c.currentIndexLocked()
	c.mode = mode
	if len(c.queue) > 0 {
		c.order = c.buildOrder(max(currentIndex, 0))
		if currentIndex >= 0 {
			c.pos = slices.Index(c.order, currentIndex)
		}
	}
	c.publishLocked()
}

// SetVolume устанавливает громкость в диапазоне [0, 1]
func (c *Controller) SetVolume(volume float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.volume = min(max(volume, 0), 1)
	c.backend.SetVolume(c.volume)
	c.publishLocked()
}

// Forget убирает удаленные из библиотеки песни из очереди.
// Если удалена текущая песня, воспроизведение останавливается и текущая песня сбрасывается.
func (c *Controller) Forget(ids []uuid.UUID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(ids) == 0 {
		return
	}

	currentIndex := c.currentIndexLocked()
	if c.current != nil && lo.Contains(ids, c.current.ID) {
		c.logger.Info("Текущая песня удалена из библиотеки", zap.String("id", c.current.ID.String()))
		c.stopLocked()
		c.current = nil
		currentIndex = -1
	}

	// Новые индексы оставшихся песен
	remap := make([]int, len(c.queue))
	var queue []data.Song
	for i, song := range c.queue {
		if lo.Contains(ids, song.ID) {
			remap[i] = -1
			continue
		}
		remap[i] = len(queue)
		queue = append(queue, song)
	}

	order := lo.FilterMap(c.order, func(index int, _ int) (int, bool) {
		return remap[index], remap[index] >= 0
	})

	c.queue, c.order, c.pos = queue, order, -1
	if currentIndex >= 0 {
		c.pos = slices.Index(c.order, remap[currentIndex])
	}
	c.publishLocked()
}

// Close останавливает воспроизведение и закрывает канал статусов
func (c *Controller) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil
	}
	c.stopLocked()
	c.closed = true
	close(c.statusChan)
	return c.backend.Close()
}

// playAtLocked загружает и воспроизводит песню с позиции pos в порядке обхода.
// При ошибке состояние воспроизведения не меняется.
func (c *Controller) playAtLocked(pos int) error {
	if pos < 0 || pos >= len(c.order) {
		return fmt.Errorf("позиция %d вне очереди из %d песен", pos, len(c.order))
	}
	song := c.queue[c.order[pos]]

	path := song.AudioPath.Path()
	if path == "" {
		c.logger.Error("У песни не указан аудиофайл", zap.String("id", song.ID.String()))
		return fmt.Errorf("%s: %w", song.Title, ErrNoSource)
	}
	if _, err := os.Stat(path); err != nil {
		c.logger.Error("Аудиофайл недоступен", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s: %w", song.Title, ErrNoSource)
	}

	generation := c.generation + 1
	if err := c.backend.Load(path, func() { c.handleEnd(generation) }); err != nil {
		c.logger.Error("Ошибка загрузки аудиофайла", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("ошибка воспроизведения %s: %w", song.Title, err)
	}

	c.cancelObserverLocked()
	c.generation = generation
	c.bound = true
	c.pos = pos
	c.current = &song
	c.currentTime = 0
	c.duration = c.backend.Duration()
	if c.duration <= 0 && song.Duration > 0 {
		c.duration = time.Duration(song.Duration * float64(time.Second))
	}
	c.durationReported = song.Duration > 0

	c.backend.SetVolume(c.volume)
	c.backend.Play()
	c.state = data.StatePlaying

	ctx, cancel := context.WithCancel(context.Background())
	c.stopObserver = cancel
	go c.observe(ctx, generation)

	c.logger.Debug("Воспроизведение песни",
		zap.String("id", song.ID.String()),
		zap.String("title", song.Title),
		zap.Int("index", c.order[pos]))

	c.publishLocked()
	return nil
}

// observe периодически публикует позицию, пока не сменится источник
func (c *Controller) observe(ctx context.Context, generation uint64) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if report := c.tick(generation); report != nil {
				report()
			}
		}
	}
}

// tick обновляет позицию и возвращает отложенный вызов обработчика длительности
func (c *Controller) tick(generation uint64) func() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.generation || !c.bound || c.state != data.StatePlaying {
		return nil
	}

	c.currentTime = c.backend.Position()
	var report func()
	if total := c.backend.Duration(); total > 0 {
		c.duration = total
		if !c.durationReported && c.current != nil && c.onDuration != nil {
			c.durationReported = true
			id, seconds, fn := c.current.ID, total.Seconds(), c.onDuration
			c.current.Duration = seconds
			report = func() { fn(id, seconds) }
		}
	}
	c.publishLocked()
	return report
}

func (c *Controller) stopLocked() {
	c.cancelObserverLocked()
	if c.bound {
		c.backend.Stop()
	}
	// Отложенный колбэк окончания старого источника больше не действителен
	c.generation++
	c.bound = false
	c.state = data.StateStopped
	c.currentTime = 0
}

func (c *Controller) cancelObserverLocked() {
	if c.stopObserver != nil {
		c.stopObserver()
		c.stopObserver = nil
	}
}

func (c *Controller) currentIndexLocked() int {
	if c.pos < 0 || c.pos >= len(c.order) {
		return -1
	}
	return c.order[c.pos]
}

// buildOrder строит порядок обхода. В режиме перемешивания песня start идет первой.
func (c *Controller) buildOrder(start int) []int {
	n := len(c.queue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if c.mode != data.ModeShuffle {
		return order
	}
	for i := n - 1; i > 0; i-- {
		j := c.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	for i, v := range order {
		if v == start {
			order[0], order[i] = order[i], order[0]
			break
		}
	}
	return order
}

type controllerSnapshot struct {
	queue []data.Song
	order []int
	pos   int
}

// snapshotLocked копирует очередь: PlaySong меняет ее элементы на месте
func (c *Controller) snapshotLocked() controllerSnapshot {
	return controllerSnapshot{queue: slices.Clone(c.queue), order: slices.Clone(c.order), pos: c.pos}
}

func (c *Controller) restoreLocked(s controllerSnapshot) {
	c.queue, c.order, c.pos = s.queue, s.order, s.pos
}

func (c *Controller) statusLocked() Status {
	status := Status{
		State:    c.state,
		Current:  c.currentTime,
		Total:    c.duration,
		Index:    c.currentIndexLocked(),
		QueueLen: len(c.queue),
		Mode:     c.mode,
		Volume:   c.volume,
	}
	if c.current != nil {
		song := *c.current
		status.Song = &song
	}
	return status
}

// publishLocked отправляет статус, заменяя непрочитанный
func (c *Controller) publishLocked() {
	if c.closed {
		return
	}
	status := c.statusLocked()
	select {
	case <-c.statusChan:
	default:
	}
	select {
	case c.statusChan <- status:
	default:
	}
}
