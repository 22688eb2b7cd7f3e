// Package openstack adapts an OpenStack cloud to magnet's compute and DNS
// interfaces.
//
// Instances, images and networks come from Nova and Neutron; DNS records are
// Designate record sets. Authentication goes through Keystone with the
// credentials of the [openstack] section of the credentials file.
package openstack
