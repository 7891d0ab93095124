package storage

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
)

// maxNamePartLength 파일명을 구성하는 각 부분(작업/명령 이름)의 최대 바이트 길이입니다.
// 파일 시스템의 경로 길이 제한(일반적으로 255바이트)을 고려한 값입니다.
const maxNamePartLength = 50

// generateFilename 작업 ID와 명령 ID를 조합하여 시스템에서 안전하게 사용할 수 있는 고유한 파일명을 생성합니다.
//
// 가독성을 위해 정제된 ID를 파일명에 포함하고, 고유성을 위해 원본 ID의 64비트 해시값을 추가합니다.
// 해시 덕분에 서로 다른 ID가 정제 후 같은 이름이 되거나, 대소문자를 구분하지 않는
// 파일 시스템에서 충돌하는 경우에도 파일이 구분됩니다.
//
// [생성 패턴]
// "task-{정제된작업이름}-{정제된명령이름}-{16자리해시}.json"
func generateFilename(taskID contract.TaskID, commandID contract.TaskCommandID) string {
	taskName := truncateASCII(sanitizeName(string(taskID)), maxNamePartLength)
	commandName := truncateASCII(sanitizeName(string(commandID)), maxNamePartLength)

	// 단순 연결 시 "ab"+"c"와 "a"+"bc"가 같은 해시 입력이 되므로,
	// 길이 접두사(Length Prefix)를 붙여 충돌을 방지합니다.
	hasher := fnv.New64a()
	_, _ = fmt.Fprintf(hasher, "%d:%s|%d:%s", len(taskID), taskID, len(commandID), commandID)

	return fmt.Sprintf("task-%s-%s-%016x.json", taskName, commandName, hasher.Sum64())
}

// sanitizeName 파일명으로 안전하게 사용할 수 있도록 문자열을 정제합니다.
//
// 영문 소문자, 숫자, 하이픈만 남기고 나머지 문자(경로 구분자, Windows 예약 문자,
// 제어 문자, 멀티바이트 문자 등)는 모두 하이픈으로 치환합니다.
func sanitizeName(s string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)

	// 연속 하이픈을 하나로 줄여 가독성을 확보합니다.
	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	return strings.Trim(sanitized, "-")
}

// truncateASCII 문자열을 지정된 바이트 길이로 자릅니다.
// sanitizeName을 거친 문자열은 ASCII만 포함하므로 바이트 단위로 잘라도 안전합니다.
func truncateASCII(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
