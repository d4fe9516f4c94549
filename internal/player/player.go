// Package player содержит компоненты для управления воспроизведением аудио
package player

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/artistmusic/internal/metadata"
)

var (
	// ErrNoSource возвращается, если аудиофайл песни не указан или отсутствует
	ErrNoSource = errors.New("аудиофайл песни недоступен")
	// ErrUnsupportedFormat возвращается, если формат файла нельзя воспроизвести
	ErrUnsupportedFormat = metadata.ErrUnsupportedFormat
)

// Backend - низкоуровневый проигрыватель одного источника
type Backend interface {
	// Load декодирует файл и подготавливает его к воспроизведению на паузе.
	// При ошибке ранее загруженный источник остается без изменений.
	// onEnd вызывается в отдельной горутине, когда источник доиграл до конца.
	Load(path string, onEnd func()) error
	Play()
	Pause()
	// Stop останавливает воспроизведение и освобождает источник
	Stop()
	Seek(position time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	SetVolume(volume float64)
	Close() error
}

// BeepBackend воспроизводит MP3 и WAV через динамики с помощью beep
type BeepBackend struct {
	mutex         sync.Mutex
	sampleRate    beep.SampleRate
	isInitialized bool

	// Компоненты для воспроизведения
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
}

// NewBeepBackend создает проигрыватель. Все источники передискретизируются к частоте 44100 Гц.
func NewBeepBackend() *BeepBackend {
	return &BeepBackend{
		sampleRate: beep.SampleRate(44100),
		level:      1,
	}
}

// Load загружает файл и ставит его на паузу в начале
func (p *BeepBackend) Load(path string, onEnd func()) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSource, err)
	}

	streamer, format, err := metadata.Decode(file, path)
	if err != nil {
		file.Close()
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Инициализируем speaker (только один раз)
	if !p.isInitialized {
		if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		p.isInitialized = true
	}

	// Останавливаем текущее воспроизведение, если есть
	p.stopInternal()

	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, p.sampleRate, streamer),
		Paused:   true,
	}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	p.applyVolume()

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		if onEnd != nil {
			// Колбэк может загрузить следующую песню, поэтому не держим блокировку speaker
			go onEnd()
		}
	})))

	return nil
}

// Play снимает источник с паузы
func (p *BeepBackend) Play() {
	p.setPaused(false)
}

// Pause ставит источник на паузу
func (p *BeepBackend) Pause() {
	p.setPaused(true)
}

func (p *BeepBackend) setPaused(paused bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = paused
		speaker.Unlock()
	}
}

// Stop останавливает воспроизведение
func (p *BeepBackend) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stopInternal()
}

// stopInternal внутренний метод остановки (должен вызываться под мьютексом)
func (p *BeepBackend) stopInternal() {
	if p.ctrl != nil {
		speaker.Clear()
		p.ctrl = nil
		p.volume = nil
	}

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
}

// Seek перемещает позицию воспроизведения
func (p *BeepBackend) Seek(position time.Duration) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return ErrNoSource
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := p.format.SampleRate.N(position)
	if samples < 0 {
		samples = 0
	}
	if length := p.streamer.Len(); samples > length {
		samples = length
	}
	if err := p.streamer.Seek(samples); err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// Position возвращает текущую позицию
func (p *BeepBackend) Position() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return 0
	}

	speaker.Lock()
	position := p.streamer.Position()
	speaker.Unlock()

	return p.format.SampleRate.D(position)
}

// Duration возвращает длительность загруженного источника
func (p *BeepBackend) Duration() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// SetVolume устанавливает громкость в диапазоне [0, 1]
func (p *BeepBackend) SetVolume(volume float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.level = math.Max(0, math.Min(1, volume))
	if p.volume != nil {
		speaker.Lock()
		p.applyVolume()
		speaker.Unlock()
	}
}

// applyVolume переводит линейную громкость в степень двойки для effects.Volume
func (p *BeepBackend) applyVolume() {
	if p.volume == nil {
		return
	}
	p.volume.Silent = p.level <= 0
	if p.level > 0 {
		p.volume.Volume = math.Log2(p.level)
	}
}

// Close закрывает плеер и освобождает ресурсы
func (p *BeepBackend) Close() error {
	p.Stop()
	return nil
}
