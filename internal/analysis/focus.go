package analysis

import "docrisk-backend/internal/risk"

var clauseFocus = map[risk.DocumentType][]string{
	risk.DocTermSheet: {
		"valuation and option pool", "liquidation preference", "participation", "anti-dilution",
		"board composition", "protective provisions", "drag-along", "exclusivity and no-shop",
	},
	risk.DocSAFE: {
		"valuation cap", "discount rate", "most favored nation", "pro rata rights",
		"conversion triggers", "dissolution and liquidity events",
	},
	risk.DocSAFT: {
		"token delivery", "token vesting and lockups", "network launch conditions",
		"securities law representations", "refund rights",
	},
	risk.DocSPA: {
		"purchase price adjustments", "representations and warranties", "indemnification caps",
		"closing conditions", "non-compete", "escrow and holdbacks",
	},
	risk.DocShareholdersAgreement: {
		"transfer restrictions", "right of first refusal", "tag-along and drag-along",
		"reserved matters", "deadlock", "founder vesting and leaver provisions",
	},
	risk.DocCapTable: {
		"dilution", "option pool size", "convertible instruments outstanding", "founder ownership",
	},
	risk.DocDueDiligence: {
		"litigation", "IP ownership", "material contracts", "regulatory exposure", "debt and liabilities",
	},
	risk.DocKYC: {
		"identity verification gaps", "beneficial ownership", "sanctions and PEP exposure", "source of funds",
	},
}

// FocusFor lists the clause categories worth looking for in a document type.
func FocusFor(docType risk.DocumentType) []string {
	return clauseFocus[docType]
}
