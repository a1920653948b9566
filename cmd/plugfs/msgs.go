package main

// User-facing messages for the plugfs CLI
const (
	MsgRootShort = "Sandboxed per-client storage areas on the host filesystem"
	MsgRootLong  = `plugfs manages sandboxed, persistent storage areas for independent
client modules of a host application. Each named storage is a directory
under the storages root that only its owning client may acquire; the
shared storage is open to everyone.`

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig  = "Path to the plugfs config file"
	MsgFlagBase    = "Base directory override (default from config)"

	MsgListShort = "List storage areas present on disk"
	MsgListLong  = `List the storage directories under the storages root. This is a disk
view; it does not acquire any storage.`

	MsgMigrateShort = "Provision the storages root and migrate legacy data"
	MsgMigrateLong  = `Create the storages root if absent and copy the contents of the
deprecated legacy location into it. The legacy directory is kept unless
--purge-legacy is given, so an interrupted migration can be retried.`

	MsgFlagPurgeLegacy = "Delete the legacy storages directory after a successful migration"

	MsgGenConfigShort = "Print the default configuration as TOML"

	MsgVersionShort = "Print version information"
)
