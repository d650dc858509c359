// Package holder implements the key-holder side of the signer protocol: the
// process that actually owns the long-term key and answers connect,
// get_identity, sign, encrypt and decrypt requests.
//
// It backs cmd/keyholderd and the end-to-end tests. A production key holder
// would put an approval UI behind the Approver hook; here the default policy
// is configurable per instance.
package holder
