package repoargs

type RepositoryName string

const (
	UserRepoName          RepositoryName = "user"
	OrderRepoName         RepositoryName = "order"
	CatalogRepoName       RepositoryName = "catalog"
	StockRepoName         RepositoryName = "stock"
	EscrowRepoName        RepositoryName = "escrow"
	OTPRepoName           RepositoryName = "otp"
	ShopRepoName          RepositoryName = "shop"
	PointPurchaseRepoName RepositoryName = "point_purchase"
	WithdrawalRepoName    RepositoryName = "withdrawal"
	BankInfoRepoName      RepositoryName = "bank_info"
	ComplaintRepoName     RepositoryName = "complaint"
	SystemConfigRepoName  RepositoryName = "system_config"
	IntentRepoName        RepositoryName = "intent"
)
