package data

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
)

const fileScheme = "file://"

// Artwork - путь к файлу обложки в управляемом хранилище.
// В JSON записывается обычным путем, а отсутствующий на диске файл превращается в null.
type Artwork string

// Exists сообщает, существует ли файл обложки
func (a Artwork) Exists() bool {
	return a != "" && fileExists(string(a))
}

// MarshalJSON записывает путь или null, если файла уже нет
func (a Artwork) MarshalJSON() ([]byte, error) {
	if !a.Exists() {
		return []byte("null"), nil
	}
	return json.Marshal(string(a))
}

// UnmarshalJSON читает путь (в том числе file:// URL) и отбрасывает ссылки на удаленные файлы
func (a *Artwork) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = ""
	if raw == nil {
		return nil
	}
	path := PathFromURL(*raw)
	if path != "" && fileExists(path) {
		*a = Artwork(path)
	}
	return nil
}

// AudioSource - путь к аудиофайлу песни
type AudioSource string

// UnmarshalJSON принимает как обычный путь, так и file:// URL
func (s *AudioSource) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = AudioSource(PathFromURL(raw))
	return nil
}

// Path возвращает путь к файлу
func (s AudioSource) Path() string {
	return string(s)
}

// PathFromURL превращает file:// URL в путь файловой системы, прочие строки возвращает как есть
func PathFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, fileScheme) {
		return raw
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return u.Path
	}
	return strings.TrimPrefix(raw, fileScheme)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
