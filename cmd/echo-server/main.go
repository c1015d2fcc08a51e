// echo-server 回显服务端
//
// 监听多地址上的入站连接，把每条连接升级为带认证的多路复用
// 会话，并在协商出回显协议的流上原样回写消息。
//
// 用法：
//
//	echo-server -listen /ip4/0.0.0.0/tcp/10333 -identity node.key -log-level info
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dep2p/go-echo/internal/core/identity"
	"github.com/dep2p/go-echo/internal/core/muxer/yamux"
	"github.com/dep2p/go-echo/internal/core/protocol"
	"github.com/dep2p/go-echo/internal/core/protocol/echo"
	"github.com/dep2p/go-echo/internal/core/security/noise"
	"github.com/dep2p/go-echo/internal/core/security/plaintext"
	"github.com/dep2p/go-echo/internal/core/swarm"
	"github.com/dep2p/go-echo/internal/core/transport/tcp"
	"github.com/dep2p/go-echo/internal/core/upgrader"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

var logger = log.Logger("cmd/echo-server")

func main() {
	listenFlag := flag.String("listen", "/ip4/0.0.0.0/tcp/10333", "监听多地址")
	identityFlag := flag.String("identity", "", "身份密钥文件路径，留空则使用临时身份")
	logLevelFlag := flag.String("log-level", "info", "日志级别 (debug/info/warn/error)")
	flag.Parse()

	level, ok := log.ParseLevel(*logLevelFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown log level: %s\n", *logLevelFlag)
		os.Exit(2)
	}
	log.SetOutputWithLevel(os.Stderr, level)

	if err := run(*listenFlag, *identityFlag); err != nil {
		logger.Error("启动失败", "err", err)
		os.Exit(1)
	}
}

func run(listenAddr, identityPath string) error {
	id, err := loadIdentity(identityPath)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	logger.Info("节点身份就绪", "node", string(id.NodeID()))

	addr, err := multiaddr.NewMultiaddr(listenAddr)
	if err != nil {
		return fmt.Errorf("parse listen address: %w", err)
	}

	noiseTransport, err := noise.New(id)
	if err != nil {
		return err
	}

	up, err := upgrader.New(id.NodeID(),
		[]interfaces.SecureTransport{noiseTransport, plaintext.New(id)},
		[]interfaces.MuxerFactory{yamux.NewFactory()})
	if err != nil {
		return err
	}

	registry := protocol.NewRegistry()
	if err := registry.Register(echo.ProtocolID, echo.Handler); err != nil {
		return err
	}

	node := swarm.New(id.NodeID(), tcp.NewTransport(tcp.DefaultConfig()), up, registry)
	defer node.Close()

	// 监听失败属于启动错误，直接退出
	if err := node.Listen(addr); err != nil {
		return err
	}
	for _, a := range node.ListenAddrs() {
		logger.Info("服务就绪", "addr", a.String())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("收到退出信号", "signal", sig.String())
	return nil
}

// loadIdentity 加载或生成身份
//
// 指定路径且文件存在时加载；文件不存在时生成新身份并落盘；
// 未指定路径时使用临时身份。
func loadIdentity(path string) (*identity.Identity, error) {
	if path == "" {
		return identity.Generate()
	}

	id, err := identity.Load(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	id, err = identity.Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, err
	}
	logger.Info("生成新身份", "path", path)
	return id, nil
}
