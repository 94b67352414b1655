package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Property keys read from the DEFAULT section of a .properties file
const (
	keyAccessKey      = "aws.access_key"
	keySecretKey      = "aws.secret_key"
	keyRegion         = "aws.region"
	keyBucket         = "aws.bucket_name"
	keyPrefix         = "aws.prefix_path"
	keyStorageClasses = "aws.storageclass"
	keyEndpoint       = "aws.endpoint"
	keyProvider       = "aws.provider"
	keySecure         = "aws.secure"

	keyPollInterval  = "conversion.poll_interval"
	keyMaxPollRounds = "conversion.max_poll_rounds"
	keyMaxWait       = "conversion.max_wait"
	keyRestoreDays   = "conversion.restore_days"
	keyRestoreTier   = "conversion.restore_tier"
	keyDryRun        = "conversion.dry_run"

	keyLogLevel    = "log.level"
	keyLogDir      = "log.dir"
	keyMetricsAddr = "metrics.addr"
	keyJournal     = "journal.path"
	keyProgress    = "progress.show"
)

func loadProperties(cfg *Config, filename string) error {
	// Tier lists use '#' as separator, so inline comments must stay disabled
	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, filename)
	if err != nil {
		return err
	}
	sec := file.Section(ini.DefaultSection)

	text := map[string]*string{
		keyAccessKey:      &cfg.Storage.AccessKey,
		keySecretKey:      &cfg.Storage.SecretKey,
		keyRegion:         &cfg.Storage.Region,
		keyEndpoint:       &cfg.Storage.Endpoint,
		keyProvider:       &cfg.Storage.Provider,
		keyBucket:         &cfg.Conversion.Bucket,
		keyPrefix:         &cfg.Conversion.Prefix,
		keyStorageClasses: &cfg.Conversion.StorageClasses,
		keyRestoreTier:    &cfg.Conversion.RestoreTier,
		keyLogLevel:       &cfg.LogLevel,
		keyLogDir:         &cfg.LogDir,
		keyMetricsAddr:    &cfg.MetricsAddr,
		keyJournal:        &cfg.Journal,
	}
	for key, dst := range text {
		if sec.HasKey(key) {
			*dst = sec.Key(key).String()
		}
	}

	if sec.HasKey(keySecure) {
		if cfg.Storage.Secure, err = sec.Key(keySecure).Bool(); err != nil {
			return fmt.Errorf("%s: %w", keySecure, err)
		}
	}
	if sec.HasKey(keyDryRun) {
		if cfg.Conversion.DryRun, err = sec.Key(keyDryRun).Bool(); err != nil {
			return fmt.Errorf("%s: %w", keyDryRun, err)
		}
	}
	if sec.HasKey(keyProgress) {
		if cfg.ShowProgress, err = sec.Key(keyProgress).Bool(); err != nil {
			return fmt.Errorf("%s: %w", keyProgress, err)
		}
	}
	if sec.HasKey(keyPollInterval) {
		if cfg.Conversion.PollInterval, err = sec.Key(keyPollInterval).Duration(); err != nil {
			return fmt.Errorf("%s: %w", keyPollInterval, err)
		}
	}
	if sec.HasKey(keyMaxWait) {
		if cfg.Conversion.MaxWait, err = sec.Key(keyMaxWait).Duration(); err != nil {
			return fmt.Errorf("%s: %w", keyMaxWait, err)
		}
	}
	if sec.HasKey(keyMaxPollRounds) {
		if cfg.Conversion.MaxPollRounds, err = sec.Key(keyMaxPollRounds).Int(); err != nil {
			return fmt.Errorf("%s: %w", keyMaxPollRounds, err)
		}
	}
	if sec.HasKey(keyRestoreDays) {
		if cfg.Conversion.RestoreDays, err = sec.Key(keyRestoreDays).Int(); err != nil {
			return fmt.Errorf("%s: %w", keyRestoreDays, err)
		}
	}

	return nil
}
