// Package interfaces 定义 go-echo 各升级阶段的能力契约
//
// 连接升级管线由一系列按能力分型的变换阶段组成，
// 每个阶段消费上一阶段的产物并产出新的抽象：
//
//	Transport (原始连接)
//	  → SecureTransport (安全通道)
//	    → MuxerFactory (多路复用连接)
//	      → 协议协商 → StreamHandler (应用会话)
//
// 各阶段只依赖接口，因此可以独立替换和测试。
package interfaces
