package deploy

// Config holds runtime knobs for client and deployment management.
type Config struct {
	// BaseDomain is the apex under which each client gets {subdomain}.{BaseDomain}.
	BaseDomain string
	// ArchivePrefix is the object key prefix for deployment snapshots.
	ArchivePrefix string
}
