// Package dns keeps a domain's records in step with a cluster.
//
// The [Registrar] adds one record per instance and removes every record
// whose zone-relative name starts with the cluster prefix. Providers
// (Designate, Cloudflare) implement [Provider].
package dns
