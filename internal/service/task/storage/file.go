// Package storage 감시 작업의 실행 결과(스냅샷)를 파일 시스템에 보관하는 저장소를 제공합니다.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// component Task 서비스의 Storage 로깅용 컴포넌트 이름
const component = "task.storage"

// defaultDataDirectory 작업 결과를 저장할 기본 디렉토리 이름입니다.
const defaultDataDirectory = "data"

// tempFilePattern 임시 파일 저장 시 사용되는 임시 파일의 이름 패턴입니다.
const tempFilePattern = "task-result-*.tmp"

// staleTempFileAge 이전 실행에서 남은 임시 파일을 정리 대상으로 판단하는 기준 시간입니다.
const staleTempFileAge = 1 * time.Hour

// fileTaskResultStore 파일 시스템을 기반으로 작업 결과를 저장하는 저장소 구현체입니다.
//
// [파일 구조]
//   - task-{taskID}-{commandID}-{hash}.json: 작업 결과가 JSON 형식으로 저장됩니다.
//   - task-result-*.tmp: 파일 저장 중 생성되는 임시 파일입니다.
type fileTaskResultStore struct {
	baseDir string

	// mu 파일 읽기/쓰기 간의 경합을 방지하기 위한 동기화 객체입니다.
	// 이 감시기는 작업 결과 파일 수가 적으므로 저장소 전체에 단일 뮤텍스를 사용합니다.
	mu sync.Mutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.TaskResultStore = (*fileTaskResultStore)(nil)

// NewFileTaskResultStore 파일 시스템 기반의 작업 결과 저장소를 생성합니다.
//
// 초기화 과정에서 저장 디렉토리를 생성하고, 이전 실행에서 남은 임시 파일을 정리합니다.
// 빈 문자열("")을 전달하면 기본 디렉토리("data")를 사용하며,
// 상대 경로는 절대 경로로 자동 변환됩니다.
func NewFileTaskResultStore(dir string) (contract.TaskResultStore, error) {
	if dir == "" {
		dir = defaultDataDirectory
	}

	// 이후 모든 파일 작업의 일관성을 위해 절대 경로로 변환합니다.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "저장 디렉토리의 절대 경로 변환에 실패하였습니다: '%s'", dir)
	}

	// 저장소 초기화 시점에 디렉토리 생성 및 접근 권한을 미리 확인하여,
	// Save 작업 시 발생할 수 있는 에러를 조기에 발견합니다.
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "저장 디렉토리 생성에 실패하였습니다: '%s'", absDir)
	}

	s := &fileTaskResultStore{
		baseDir: absDir,
	}

	s.cleanupStaleTempFiles()

	return s, nil
}

// cleanupStaleTempFiles 비정상 종료(크래시, 강제 종료 등)로 인해 이전 실행에서 남겨진 임시 파일을 정리합니다.
func (s *fileTaskResultStore) cleanupStaleTempFiles() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"dir":   s.baseDir,
			"error": err,
		}).Warn("임시 파일 정리 중단: 디렉토리 조회 실패")

		return
	}

	threshold := time.Now().Add(-staleTempFileAge)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if matched, _ := filepath.Match(tempFilePattern, name); !matched {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// 최근에 수정된 파일은 다른 프로세스가 사용 중일 수 있으므로 건너뜁니다.
		if info.ModTime().After(threshold) {
			continue
		}

		fullPath := filepath.Join(s.baseDir, name)
		if err := os.Remove(fullPath); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"file":  fullPath,
				"error": err,
			}).Warn("임시 파일 삭제 실패: 파일 제거 오류")
		} else {
			applog.WithComponentAndFields(component, applog.Fields{
				"file": fullPath,
			}).Info("임시 파일 삭제 완료: 이전 실행 잔존 파일 정리")
		}
	}
}

// Load 저장된 작업 결과를 파일에서 읽어옵니다.
//
// 저장된 데이터가 없는 경우(첫 실행 등) contract.ErrTaskResultNotFound를 반환합니다.
func (s *fileTaskResultStore) Load(taskID contract.TaskID, commandID contract.TaskCommandID, v any) error {
	// v가 nil이 아닌 포인터인지 검증하여 잘못된 호출을 즉시 차단합니다.
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return apperrors.New(apperrors.InvalidInput, "Load의 대상은 nil이 아닌 포인터여야 합니다")
	}

	filename, err := s.resolveSafePath(taskID, commandID)
	if err != nil {
		return err
	}

	// 쓰기 작업과의 경합을 방지하기 위해 읽기에도 Lock을 적용합니다.
	s.mu.Lock()
	data, readErr := os.ReadFile(filename)
	s.mu.Unlock()

	if readErr != nil {
		if os.IsNotExist(readErr) {
			return contract.ErrTaskResultNotFound
		}

		return apperrors.Wrapf(readErr, apperrors.System, "작업 결과 파일 읽기에 실패하였습니다: '%s'", filename)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrapf(err, apperrors.System, "작업 결과 JSON 역직렬화에 실패하였습니다: '%s'", filename)
	}

	return nil
}

// Save 작업 결과를 파일에 저장합니다.
//
// [저장 전략: 원자적 쓰기]
// 파일 저장 중 시스템 장애(전원 차단, 프로세스 종료 등)가 발생해도 데이터 무결성을 보장하기 위해
// "임시 파일 쓰기 → 디스크 동기화(fsync) → 원자적 이름 변경(rename)" 전략을 사용합니다.
func (s *fileTaskResultStore) Save(taskID contract.TaskID, commandID contract.TaskCommandID, v any) error {
	filename, err := s.resolveSafePath(taskID, commandID)
	if err != nil {
		return err
	}

	// JSON 직렬화는 Lock 획득 전에 수행하여 Lock 보유 시간을 최소화합니다.
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "작업 결과 JSON 직렬화에 실패하였습니다")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeAtomic(filename, data)
}

// resolveSafePath TaskID, CommandID를 사용하여 안전하게 검증된 파일 경로를 생성합니다.
//
// 생성된 경로가 허용된 기본 디렉토리를 벗어나지 않는지 검증하여
// Path Traversal 공격을 방어합니다.
func (s *fileTaskResultStore) resolveSafePath(taskID contract.TaskID, commandID contract.TaskCommandID) (string, error) {
	filename := generateFilename(taskID, commandID)

	cleanPath := filepath.Clean(filepath.Join(s.baseDir, filename))

	// filepath.Rel로 BaseDir 기준 상대 경로를 계산하여,
	// 단순 접두사 비교로는 잡을 수 없는 경로 이탈까지 검증합니다.
	rel, err := filepath.Rel(s.baseDir, cleanPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.System, "작업 결과 파일 경로 계산에 실패하였습니다")
	}

	if strings.HasPrefix(rel, "..") {
		applog.WithComponentAndFields(component, applog.Fields{
			"task_id":    taskID,
			"command_id": commandID,
			"filename":   filename,
			"base_dir":   s.baseDir,
			"path":       cleanPath,
		}).Error("파일 경로 생성 차단: 경로 이탈 시도 감지")

		return "", apperrors.New(apperrors.InvalidInput, "작업 결과 파일 경로가 저장 디렉토리를 벗어납니다")
	}

	return cleanPath, nil
}

// writeAtomic 데이터를 파일에 원자적으로 저장합니다.
func (s *fileTaskResultStore) writeAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrapf(err, apperrors.System, "저장 디렉토리 생성에 실패하였습니다: '%s'", dir)
	}

	// 같은 디렉토리 내에 임시 파일을 생성해야 rename이 원자적으로 동작합니다.
	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 생성에 실패하였습니다")
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 파일이 열려있는 상태에서 삭제가 불가능하므로
	// Close가 Remove보다 먼저 실행되도록 defer 순서를 유지합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 쓰기에 실패하였습니다")
	}

	// 운영체제 버퍼 캐시에만 있는 상태에서 전원이 차단되는 것을 방지합니다.
	if err := tmpFile.Sync(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 디스크 동기화에 실패하였습니다")
	}

	// Windows에서는 파일이 열려 있으면 rename이 실패하므로 반드시 닫아야 합니다.
	if err := tmpFile.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "임시 파일 닫기에 실패하였습니다")
	}

	if err := os.Rename(tmpPath, filename); err != nil {
		return apperrors.Wrapf(err, apperrors.System, "작업 결과 파일 이름 변경에 실패하였습니다: '%s'", filename)
	}

	// 파일명 변경 사항을 디스크에 확실히 기록하기 위해 부모 디렉토리를 fsync합니다.
	// 실패해도 치명적이지 않으므로 에러를 무시합니다.
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}
