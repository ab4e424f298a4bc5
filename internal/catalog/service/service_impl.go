package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/megasio/payadmin/internal/catalog/domain"
	"github.com/megasio/payadmin/internal/clock"
	"github.com/megasio/payadmin/internal/config"
	"github.com/megasio/payadmin/internal/gateway"
	"github.com/megasio/payadmin/internal/lock"
	obsmetrics "github.com/megasio/payadmin/internal/observability/metrics"
	methoddomain "github.com/megasio/payadmin/internal/paymentmethod/domain"
	pkgdb "github.com/megasio/payadmin/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const syncLockKey = "payadmin:catalog:sync"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    methoddomain.Repository
	Gateway catalogdomain.Gateway
	SyncCfg *config.SyncConfigHolder
	Locker  *lock.Locker        `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    methoddomain.Repository
	gw      catalogdomain.Gateway
	syncCfg *config.SyncConfigHolder
	locker  *lock.Locker
	metrics *obsmetrics.Metrics
}

func New(p Params) catalogdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("catalog.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		gw:      p.Gateway,
		syncCfg: p.SyncCfg,
		locker:  p.Locker,
		metrics: p.Metrics,
	}
}

func (s *Service) ReconcileAll(ctx context.Context) (catalogdomain.SyncResult, error) {
	cfg := s.syncCfg.Current()

	if s.locker != nil {
		ttl := time.Duration(cfg.LockTTLSeconds) * time.Second
		token, acquired, err := s.locker.TryLock(ctx, syncLockKey, ttl)
		if err != nil {
			return catalogdomain.SyncResult{}, err
		}
		if !acquired {
			return catalogdomain.SyncResult{}, catalogdomain.ErrSyncInProgress
		}
		defer func() {
			if err := s.locker.Release(ctx, syncLockKey, token); err != nil {
				s.log.Warn("failed to release sync lock", zap.Error(err))
			}
		}()
	}

	var result catalogdomain.SyncResult
	var firstErr error

	result.Fiat, firstErr = s.ReconcileFiat(ctx)

	crypto, err := s.ReconcileCrypto(ctx)
	result.Crypto = crypto
	if firstErr == nil {
		firstErr = err
	}

	return result, firstErr
}

// ReconcileFiat walks the payments catalog currency by currency. A record can
// yield up to two rows, one per enabled direction; the two are independent.
func (s *Service) ReconcileFiat(ctx context.Context) (catalogdomain.Report, error) {
	var report catalogdomain.Report

	catalog, err := s.gw.FetchPayments(ctx)
	if err != nil {
		s.log.Error("fiat catalog fetch failed", zap.Error(err))
		return report, err
	}
	if len(catalog.Items) == 0 {
		s.log.Warn("fiat catalog is empty")
		return report, nil
	}

	cfg := s.syncCfg.Current()
	for currency, records := range catalog.Items {
		for _, record := range records {
			if record.EnableDeposit != 0 {
				s.reconcileFiatRecord(ctx, record, currency, methoddomain.TypeDeposit, cfg, &report)
			}
			if record.EnableWithdraw != 0 {
				s.reconcileFiatRecord(ctx, record, currency, methoddomain.TypeWithdraw, cfg, &report)
			}
		}
	}

	s.log.Info("fiat catalog reconciled",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

func (s *Service) reconcileFiatRecord(
	ctx context.Context,
	record gateway.PaymentRecord,
	currency string,
	direction string,
	cfg config.SyncConfig,
	report *catalogdomain.Report,
) {
	outcome, err := s.upsertFiatRecord(ctx, record, currency, direction, cfg)
	if err != nil {
		report.Errors++
		s.record(ctx, "fiat", "error")
		s.log.Error("fiat record reconcile failed",
			zap.Int64("payment_id", record.ID),
			zap.String("name", record.Name),
			zap.String("currency", currency),
			zap.String("type", direction),
			zap.Error(err),
		)
		return
	}
	switch outcome {
	case outcomeCreated:
		report.Created++
	case outcomeUpdated:
		report.Updated++
	}
	s.record(ctx, "fiat", string(outcome))
}

type upsertOutcome string

const (
	outcomeCreated upsertOutcome = "created"
	outcomeUpdated upsertOutcome = "updated"
)

func (s *Service) upsertFiatRecord(
	ctx context.Context,
	record gateway.PaymentRecord,
	currency string,
	direction string,
	cfg config.SyncConfig,
) (upsertOutcome, error) {
	fieldsKey := "deposit_fields"
	if direction == methoddomain.TypeWithdraw {
		fieldsKey = "withdraw_fields"
	}
	var incoming []methoddomain.Field
	if raw := fieldList(record.PaymentInfo[fieldsKey]); len(raw) > 0 {
		incoming = buildFormFields(raw, record.PaymentInfo, currency, cfg)
	}

	var notes datatypes.JSON
	if len(record.PaymentInfo) > 0 {
		encoded, err := json.Marshal(record.PaymentInfo)
		if err != nil {
			return "", err
		}
		notes = datatypes.JSON(encoded)
	}

	existing, err := s.repo.FindByProviderKey(ctx, s.db, record.ID, direction, true)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	if existing != nil {
		existing.Name = record.Name
		existing.Currency = currency
		existing.CurrencyType = currency
		existing.Enabled = true
		existing.SyncedAt = &now
		if notes != nil {
			existing.Notes = notes
		}
		// Merge, never replace: locally customized fields survive the sync.
		if incoming != nil {
			current, err := existing.FieldList()
			if err != nil {
				return "", err
			}
			if err := existing.SetFieldList(methoddomain.MergeFields(current, incoming)); err != nil {
				return "", err
			}
		}
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return "", err
		}
		return outcomeUpdated, nil
	}

	method := &methoddomain.PaymentMethod{
		ID:           s.genID.Generate(),
		Key:          record.ID,
		Type:         direction,
		IsFiat:       true,
		Name:         record.Name,
		DisplayName:  record.Name,
		Currency:     currency,
		CurrencyType: currency,
		Enabled:      true,
		Notes:        notes,
		SyncedAt:     &now,
	}
	if incoming != nil {
		if err := method.SetFieldList(incoming); err != nil {
			return "", err
		}
	}
	if err := s.repo.Create(ctx, s.db, method); err != nil {
		// Lost a create race with a concurrent sync; the row exists now.
		if pkgdb.IsDuplicateKeyErr(err) {
			return s.upsertFiatRecord(ctx, record, currency, direction, cfg)
		}
		return "", err
	}
	return outcomeCreated, nil
}

// ReconcileCrypto mirrors the fiat branch for the coins catalog; crypto rails
// carry a metadata bag instead of form fields.
func (s *Service) ReconcileCrypto(ctx context.Context) (catalogdomain.Report, error) {
	var report catalogdomain.Report

	catalog, err := s.gw.FetchCoins(ctx)
	if err != nil {
		s.log.Error("coin catalog fetch failed", zap.Error(err))
		return report, err
	}
	if len(catalog.Items) == 0 {
		s.log.Warn("coin catalog is empty")
		return report, nil
	}

	for _, coin := range catalog.Items {
		if coin.EnableDeposit != 0 {
			s.reconcileCoinRecord(ctx, coin, methoddomain.TypeDeposit, &report)
		}
		if coin.EnableWithdraw != 0 {
			s.reconcileCoinRecord(ctx, coin, methoddomain.TypeWithdraw, &report)
		}
	}

	s.log.Info("coin catalog reconciled",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

func (s *Service) reconcileCoinRecord(
	ctx context.Context,
	coin gateway.CoinRecord,
	direction string,
	report *catalogdomain.Report,
) {
	outcome, err := s.upsertCoinRecord(ctx, coin, direction)
	if err != nil {
		report.Errors++
		s.record(ctx, "crypto", "error")
		s.log.Error("coin record reconcile failed",
			zap.Int64("coin_id", coin.ID),
			zap.String("symbol", coin.Symbol),
			zap.String("type", direction),
			zap.Error(err),
		)
		return
	}
	switch outcome {
	case outcomeCreated:
		report.Created++
	case outcomeUpdated:
		report.Updated++
	}
	s.record(ctx, "crypto", string(outcome))
}

func (s *Service) upsertCoinRecord(ctx context.Context, coin gateway.CoinRecord, direction string) (upsertOutcome, error) {
	info := map[string]any{
		"token_name":        coin.TokenName,
		"coin_type":         coin.CoinType,
		"contract_address":  coin.ContractAddress,
		"token_decimal":     coin.TokenDecimal,
		"min_withdraw":      coin.MinWithdraw,
		"withdraw_fee":      coin.WithdrawFee,
		"arrive_time":       coin.ArriveTime,
		"display_precision": coin.DisplayPrecision,
		"type_alias":        coin.TypeAlias,
		"multi_chain":       coin.MultiChain,
		"memoable":          coin.Memoable,
	}
	encoded, err := json.Marshal(info)
	if err != nil {
		return "", err
	}

	existing, err := s.repo.FindByProviderKey(ctx, s.db, coin.ID, direction, false)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	if existing != nil {
		existing.Name = coin.Symbol
		existing.Currency = coin.Symbol
		existing.CurrencyType = coin.CoinType
		existing.Enabled = true
		existing.CryptoInfo = datatypes.JSON(encoded)
		existing.SyncedAt = &now
		if !coin.MinWithdraw.IsZero() {
			min := coin.MinWithdraw
			existing.MinAmount = &min
		}
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return "", err
		}
		return outcomeUpdated, nil
	}

	displayName := coin.TokenName
	if displayName == "" {
		displayName = coin.Symbol
	}
	method := &methoddomain.PaymentMethod{
		ID:           s.genID.Generate(),
		Key:          coin.ID,
		Type:         direction,
		IsFiat:       false,
		Name:         coin.Symbol,
		DisplayName:  displayName,
		Icon:         coin.Icon,
		Currency:     coin.Symbol,
		CurrencyType: coin.CoinType,
		Enabled:      true,
		CryptoInfo:   datatypes.JSON(encoded),
		SortID:       coin.SortID,
		SyncedAt:     &now,
	}
	if !coin.MinWithdraw.IsZero() {
		min := coin.MinWithdraw
		method.MinAmount = &min
	}
	if err := s.repo.Create(ctx, s.db, method); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return s.upsertCoinRecord(ctx, coin, direction)
		}
		return "", err
	}
	return outcomeCreated, nil
}

func (s *Service) record(ctx context.Context, branch, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCatalogRecord(ctx, branch, outcome)
	}
}

// buildFormFields post-processes a provider field list: option lists are
// filled from the per-payment extra map, and bank-id-keyed currencies get the
// reshaped bank_code options with the redundant bank_id/bank_name fields
// dropped.
func buildFormFields(raw []methoddomain.Field, paymentInfo map[string]any, currency string, cfg config.SyncConfig) []methoddomain.Field {
	extra, _ := paymentInfo["extra"].(map[string]any)
	bankIDKeyed := cfg.BankIDKeyed(currency)
	bankOptions := buildBankOptions(extra["bank_code"], bankIDKeyed)

	fields := make([]methoddomain.Field, 0, len(raw))
	for _, field := range raw {
		name := field.Name()
		if bankIDKeyed && (name == "bank_id" || name == "bank_name") {
			continue
		}

		next := field.Clone()
		switch {
		case name == "bank_code":
			if len(bankOptions) > 0 {
				next["list"] = bankOptions
			}
		case cfg.OptionField(name):
			if options, ok := extra[name]; ok {
				next["list"] = options
			}
		}
		fields = append(fields, next)
	}
	return fields
}

// buildBankOptions normalizes a provider bank table into selectable options.
// For bank-id-keyed tables each option keeps the raw bank row under bank_info
// and is tagged value_type "1" so the form knows codes are bank ids.
func buildBankOptions(raw any, bankIDKeyed bool) []any {
	entries := bankEntries(raw)
	if len(entries) == 0 {
		return nil
	}

	options := make([]any, 0, len(entries))
	for _, entry := range entries {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		if _, hasBankID := row["bank_id"]; bankIDKeyed && hasBankID {
			code, _ := row["bank_code"].(string)
			options = append(options, map[string]any{
				"name":       code,
				"value":      code,
				"bank_info":  row,
				"value_type": "1",
			})
			continue
		}

		option := map[string]any{}
		if name, ok := row["bank_name"]; ok {
			option["name"] = name
		}
		if code, ok := row["bank_code"]; ok {
			option["value"] = code
		}
		if icon, ok := row["bank_icon"]; ok {
			option["icon"] = icon
		}
		options = append(options, option)
	}
	return options
}

// bankEntries accepts either a plain list or a keyed object; keyed objects
// are walked in sorted key order so output is stable.
func bankEntries(raw any) []any {
	switch cast := raw.(type) {
	case []any:
		return cast
	case map[string]any:
		keys := make([]string, 0, len(cast))
		for key := range cast {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		entries := make([]any, 0, len(keys))
		for _, key := range keys {
			entries = append(entries, cast[key])
		}
		return entries
	default:
		return nil
	}
}

func fieldList(raw any) []methoddomain.Field {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	fields := make([]methoddomain.Field, 0, len(items))
	for _, item := range items {
		if field, ok := item.(map[string]any); ok {
			fields = append(fields, methoddomain.Field(field))
		}
	}
	return fields
}
