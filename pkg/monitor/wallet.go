package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 操作结果标签
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// WalletMetrics 钱包操作监控指标
// nil 的 *WalletMetrics 是合法的，所有方法都变成空操作
type WalletMetrics struct {
	OperationsTotal      *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	TransferredLamports  *prometheus.CounterVec
	BalanceBelowFeeTotal prometheus.Counter
}

// NewWalletMetrics 创建并注册指标，reg 为 nil 时只创建不注册
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	m := &WalletMetrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Total number of wallet operations by result",
		}, []string{"operation", "result"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_operation_duration_seconds",
			Help:    "Duration of wallet operations including confirmation",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 90},
		}, []string{"operation"}),
		TransferredLamports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_transferred_lamports_total",
			Help: "Total lamports moved by confirmed operations",
		}, []string{"operation"}),
		BalanceBelowFeeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_sweep_below_fee_total",
			Help: "Sweeps skipped because balance did not cover the fee",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.TransferredLamports, m.BalanceBelowFeeTotal)
	}
	return m
}

// Observe 记录一次操作的结果与耗时
func (m *WalletMetrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *WalletMetrics) AddTransferred(operation string, lamports uint64) {
	if m == nil {
		return
	}
	m.TransferredLamports.WithLabelValues(operation).Add(float64(lamports))
}

func (m *WalletMetrics) IncBalanceBelowFee() {
	if m == nil {
		return
	}
	m.BalanceBelowFeeTotal.Inc()
}
