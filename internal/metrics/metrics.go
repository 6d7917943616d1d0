package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus指标，随包加载注册到默认Registry
var (
	// DocumentsIngested 成功入库的文档数
	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_documents_ingested_total",
		Help: "Number of documents successfully ingested.",
	})

	// ChunksEmbedded 已向量化并写入的chunk数
	ChunksEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_chunks_embedded_total",
		Help: "Number of chunks embedded and upserted.",
	})

	// QueriesTotal 按角色统计的查询数
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_queries_total",
		Help: "Number of RAG queries processed, labelled by caller role.",
	}, []string{"role"})

	// QueriesNoContext 过滤后零命中的查询数（未触发生成）
	QueriesNoContext = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_queries_no_context_total",
		Help: "Number of queries that matched no accessible documents.",
	})

	// UpstreamErrors 按服务统计的上游调用失败数
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_upstream_errors_total",
		Help: "Number of upstream service failures, labelled by service.",
	}, []string{"service"})
)
