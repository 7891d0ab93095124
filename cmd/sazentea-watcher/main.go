package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification"
	"github.com/darkkaiser/sazentea-watcher/internal/service/scheduler"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/storage"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
	log "github.com/sirupsen/logrus"
)

// 빌드 정보 변수 (Dockerfile의 ldflags로 주입됨)
var (
	Version   = "dev"     // Git 커밋 해시
	BuildDate = "unknown" // 빌드 날짜
)

const (
	banner = `
  ____                          _____              __        __     _       _
 / ___|  __ _ _______ _ __     |_   _|__  __ _     \ \      / /__ _| |_ ___| |__   ___ _ __
 \___ \ / _` + "`" + ` |_  / _ \ '_ \      | |/ _ \/ _` + "`" + ` |     \ \ /\ / / _` + "`" + ` | __/ __| '_ \ / _ \ '__|
  ___) | (_| |/ /  __/ | | |     | |  __/ (_| |      \ V  V / (_| | || (__| | | |  __/ |
 |____/ \__,_/___\___|_| |_|     |_|\___|\__,_|       \_/\_/ \__,_|\__\___|_| |_|\___|_|
                                                                        %s
--------------------------------------------------------------------------------
`
)

func main() {
	os.Exit(run())
}

// run 애플리케이션 전체 생명주기를 관리하고 종료 코드를 반환합니다.
//
// main()에서 os.Exit를 직접 호출하면 defer가 실행되지 않으므로,
// 정리 작업(로그 리소스 해제 등)이 보장되도록 별도 함수로 분리합니다.
func run() int {
	configFile := flag.String("config", config.DefaultFilename, "환경설정 파일 경로")
	flag.Parse()

	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFile(*configFile)
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		return 1
	}

	// 2. 로그 시스템 초기화
	logOpts := applog.Options{
		Name:  config.AppName,
		Level: applog.InfoLevel,

		MaxAge: 30,

		EnableCriticalLog: true,
	}
	if appConfig.Debug {
		logOpts.Level = applog.DebugLevel
		logOpts.EnableConsoleLog = true
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 감시 작업 구동을 중단합니다. (Cause: %v)\n", err)
		return 1
	}
	defer appLogCloser.Close()

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, Version)

	applog.WithComponentAndFields("main", log.Fields{
		"version":    Version,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"env":        map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("감시 작업 초기화 시작")

	// 3. 서비스를 생성하고 초기화한다.
	taskResultStore, err := storage.NewFileTaskResultStore(appConfig.Watch.DataDir)
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("작업 결과 저장소 초기화 실패")
		return 1
	}

	notificationService, err := notification.NewService(appConfig)
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("Notification 서비스 초기화 실패")
		return 1
	}

	taskService, err := task.NewService(appConfig, taskResultStore, notificationService)
	if err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("Task 서비스 초기화 실패")
		return 1
	}

	schedulerService := scheduler.NewService(appConfig.Watch, taskService, notificationService)

	// 4. 종료 신호(SIGINT, SIGTERM) 수신 시 취소되는 서비스 생명주기 컨텍스트를 구성한다.
	serviceStopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceStopWG := &sync.WaitGroup{}

	// 5. 감시 루프를 시작한다.
	serviceStopWG.Add(1)
	if err := schedulerService.Start(serviceStopCtx, serviceStopWG); err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("서비스 초기화 실패")

		serviceStopWG.Wait()
		return 1
	}

	applog.WithComponent("main").Info("감시 작업 가동 완료")

	// 감시 루프가 끝날 때까지 대기한다.
	// 종료 신호 수신 또는 abort 정책에 의한 작업 실패 시 루프가 종료된다.
	<-schedulerService.Done()
	serviceStopWG.Wait()

	if err := schedulerService.Err(); err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("감시 작업 실패로 프로그램을 종료합니다")
		return 1
	}

	applog.WithComponent("main").Info("Shutdown signal received")
	return 0
}
