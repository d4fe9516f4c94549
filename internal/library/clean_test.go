package library

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanArtwork(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "cover.png")
	if err := os.WriteFile(existing, []byte("png"), 0644); err != nil {
		t.Fatalf("Ошибка создания обложки: %v", err)
	}
	missing := filepath.Join(dir, "gone.png")

	artists := []map[string]any{
		{"id": "a1", "name": "Live", "artworkURL": "file://" + existing},
		{"id": "a2", "name": "Dead", "artworkURL": missing, "songs": []any{
			map[string]any{"id": "s1", "title": "Nested", "artworkURL": "file://" + missing, "audioURL": "file:///music/n.mp3"},
		}},
	}
	content, _ := json.Marshal(artists)
	if err := os.WriteFile(filepath.Join(dir, ArtistsFile), content, 0644); err != nil {
		t.Fatalf("Ошибка записи документа: %v", err)
	}

	clean := []map[string]any{{"id": "p1", "name": "Fine", "artworkURL": existing}}
	content, _ = json.Marshal(clean)
	if err := os.WriteFile(filepath.Join(dir, PlaylistsFile), content, 0644); err != nil {
		t.Fatalf("Ошибка записи документа: %v", err)
	}

	report, err := CleanArtwork(dir, nil)
	if err != nil {
		t.Fatalf("Ошибка очистки: %v", err)
	}

	if report.Removed != 2 {
		t.Errorf("Ожидалось 2 удаленные ссылки, получено %d", report.Removed)
	}
	if report.Converted != 2 {
		t.Errorf("Ожидалось 2 преобразованные ссылки, получено %d", report.Converted)
	}
	if len(report.Rewritten) != 1 || report.Rewritten[0] != ArtistsFile {
		t.Errorf("Ожидалась перезапись только %s, получено %v", ArtistsFile, report.Rewritten)
	}

	updated, err := os.ReadFile(filepath.Join(dir, ArtistsFile))
	if err != nil {
		t.Fatalf("Ошибка чтения документа: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(updated, &records); err != nil {
		t.Fatalf("Ошибка разбора документа: %v", err)
	}
	if records[0]["artworkURL"] != existing {
		t.Errorf("Ожидался обычный путь %s, получено %v", existing, records[0]["artworkURL"])
	}
	if records[1]["artworkURL"] != nil {
		t.Errorf("Ссылка на отсутствующий файл должна быть null, получено %v", records[1]["artworkURL"])
	}
	nested := records[1]["songs"].([]any)[0].(map[string]any)
	if nested["artworkURL"] != nil || nested["audioURL"] != "/music/n.mp3" {
		t.Errorf("Вложенная песня очищена неверно: %v", nested)
	}
}

func TestCleanArtworkEmptyDir(t *testing.T) {
	report, err := CleanArtwork(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if report.Removed != 0 || len(report.Rewritten) != 0 {
		t.Errorf("Пустой каталог не должен изменяться: %+v", report)
	}
}
