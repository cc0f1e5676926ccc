// Package config loads and watches the calculator configuration file
// (calc.yaml).
//
// Top-level types:
//   - Config{Calc}: full config tree parsed from YAML
//   - CalcConfig: log_level, patient_limit, country_code, include_country,
//     comparison, filter, source, output, publish, schedule, watch
//   - SourceConfig: type (csv|sqlite|postgres), path, table, dsn_env
//   - FilterConfig: country, from, to (YYYY-MM-DD), date_column
//   - OutputConfig: format (csv|json|prom), path ("" is stdout)
//   - PublishConfig: endpoint, scope, header, api_key_env, timeout,
//     max_attempts
//
// Load(path) reads the YAML file, applies defaults (info logging, patient
// limit 30, csv in and out, 10s publish timeout), then validates enums,
// dates and the cron schedule. Secrets never live in the file: dsn_env and
// api_key_env name environment variables resolved at use.
//
// The Options, RegistrySource, RowFilter, Format and PublishOptions methods
// translate the file into the parameters of the stats, registry, export and
// publish packages.
//
// Watch(ctx, path, onChange) uses fsnotify to detect writes to the config
// file and to a csv source, debounces bursts of events, and calls onChange
// with the newly parsed Config. Invalid reloads are logged and skipped.
package config
